package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const defaultKerasFilters = "!\"#$%&()*+,-./:;<=>?@[\\]^_`{|}~\t\n"

// Tokenizer maps text to the integer sequences the LSTM model was trained on.
// It reads the JSON written by a Keras text Tokenizer.
type Tokenizer struct {
	wordIndex map[string]int
	numWords  int
	oovIndex  int
	lower     bool
	split     string
	filters   string
}

type kerasTokenizerFile struct {
	ClassName string `json:"class_name"`
	Config    struct {
		NumWords  *int    `json:"num_words"`
		Filters   *string `json:"filters"`
		Lower     *bool   `json:"lower"`
		Split     *string `json:"split"`
		OOVToken  *string `json:"oov_token"`
		WordIndex any     `json:"word_index"`
	} `json:"config"`
}

// LoadTokenizer reads a Keras tokenizer JSON file.
func LoadTokenizer(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tokenizer file: %w", err)
	}
	return ParseTokenizer(data)
}

// ParseTokenizer decodes Keras tokenizer JSON. word_index may be an object or
// a JSON-encoded string, as Keras writes it.
func ParseTokenizer(data []byte) (*Tokenizer, error) {
	var f kerasTokenizerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid tokenizer json: %w", err)
	}

	index, err := decodeWordIndex(f.Config.WordIndex)
	if err != nil {
		return nil, err
	}
	if len(index) == 0 {
		return nil, fmt.Errorf("tokenizer has an empty word_index")
	}

	t := &Tokenizer{
		wordIndex: index,
		lower:     true,
		split:     " ",
		filters:   defaultKerasFilters,
	}
	if f.Config.NumWords != nil {
		t.numWords = *f.Config.NumWords
	}
	if f.Config.Lower != nil {
		t.lower = *f.Config.Lower
	}
	if f.Config.Split != nil && *f.Config.Split != "" {
		t.split = *f.Config.Split
	}
	if f.Config.Filters != nil {
		t.filters = *f.Config.Filters
	}
	if f.Config.OOVToken != nil {
		t.oovIndex = index[*f.Config.OOVToken]
	}
	return t, nil
}

func decodeWordIndex(raw any) (map[string]int, error) {
	var blob []byte
	switch v := raw.(type) {
	case string:
		blob = []byte(v)
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		blob = b
	case nil:
		return nil, fmt.Errorf("tokenizer is missing word_index")
	default:
		return nil, fmt.Errorf("unexpected word_index type %T", raw)
	}

	index := make(map[string]int)
	if err := json.Unmarshal(blob, &index); err != nil {
		return nil, fmt.Errorf("invalid word_index: %w", err)
	}
	return index, nil
}

// Words splits text the way the tokenizer was fitted.
func (t *Tokenizer) Words(text string) []string {
	if t.lower {
		text = strings.ToLower(text)
	}
	if t.filters != "" {
		var b strings.Builder
		b.Grow(len(text))
		for _, r := range text {
			if strings.ContainsRune(t.filters, r) {
				b.WriteString(t.split)
			} else {
				b.WriteRune(r)
			}
		}
		text = b.String()
	}
	var words []string
	for _, w := range strings.Split(text, t.split) {
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Sequence converts text to word ids. Unknown words map to the OOV id when
// the tokenizer has one and are dropped otherwise.
func (t *Tokenizer) Sequence(text string) []int {
	words := t.Words(text)
	seq := make([]int, 0, len(words))
	for _, w := range words {
		id, ok := t.wordIndex[w]
		switch {
		case ok && (t.numWords == 0 || id < t.numWords):
			seq = append(seq, id)
		case t.oovIndex > 0:
			seq = append(seq, t.oovIndex)
		}
	}
	return seq
}

// PadPost truncates seq to maxLen keeping the head and pads with zeros at the
// end.
func PadPost(seq []int, maxLen int) []int {
	out := make([]int, maxLen)
	copy(out, seq)
	return out
}
