package jobs

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"
	"resumatch/internal/types"
)

// FileSource reads jobs from a YAML or JSON file on every List, so edits are
// picked up without a restart. Keys may be snake_case, camelCase or the job
// board's display names ("Job Title", "Skills Required").
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Name() string { return "file" }
func (f *FileSource) Close() error { return nil }

// Path is the watched file.
func (f *FileSource) Path() string { return f.path }

func (f *FileSource) List(ctx context.Context) ([]types.JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, sourceFailed("failed to read jobs file", err)
	}
	jobs, err := ParseJobs(data)
	if err != nil {
		return nil, sourceFailed(fmt.Sprintf("failed to parse jobs file %s", f.path), err)
	}
	return jobs, nil
}

func (f *FileSource) Get(ctx context.Context, id string) (types.JobRecord, error) {
	jobs, err := f.List(ctx)
	if err != nil {
		return types.JobRecord{}, err
	}
	for _, j := range jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return types.JobRecord{}, notFound(id)
}

// ParseJobs decodes a list of jobs, a mapping with a "jobs" list, or a single
// job mapping. JSON is accepted as YAML. Jobs without an id get their 1-based position.
func ParseJobs(data []byte) ([]types.JobRecord, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var items []any
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case map[string]any:
		if list, ok := v["jobs"].([]any); ok {
			items = list
			break
		}
		if fromFields(v) == (types.JobRecord{}) {
			return nil, fmt.Errorf("expected a job, a list of jobs or a \"jobs\" key")
		}
		items = []any{v}
	default:
		return nil, fmt.Errorf("unexpected document type %T", doc)
	}

	jobs := make([]types.JobRecord, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("job %d is not a mapping", i+1)
		}
		job := fromFields(fields)
		if job.ID == "" {
			job.ID = strconv.Itoa(i + 1)
		}
		jobs = append(jobs, normalize(job))
	}
	return jobs, nil
}

func jobField(get func(*types.JobRecord) *string, keys ...string) fieldAliases {
	return fieldAliases{keys: keys, field: get}
}

// fieldAliases lists the folded keys accepted for one field, most preferred
// first.
type fieldAliases struct {
	keys  []string
	field func(*types.JobRecord) *string
}

var jobFields = []fieldAliases{
	jobField(func(j *types.JobRecord) *string { return &j.ID }, "id", "jobid"),
	jobField(func(j *types.JobRecord) *string { return &j.Title }, "title", "jobtitle"),
	jobField(func(j *types.JobRecord) *string { return &j.Company }, "company", "companyname"),
	jobField(func(j *types.JobRecord) *string { return &j.Description }, "description", "jobdescription"),
	jobField(func(j *types.JobRecord) *string { return &j.Location }, "location"),
	jobField(func(j *types.JobRecord) *string { return &j.JobType }, "jobtype"),
	jobField(func(j *types.JobRecord) *string { return &j.SalaryRange }, "salaryrange"),
	jobField(func(j *types.JobRecord) *string { return &j.ExperienceLevel }, "experiencelevel"),
	jobField(func(j *types.JobRecord) *string { return &j.SkillsRequired }, "skillsrequired", "skills"),
	jobField(func(j *types.JobRecord) *string { return &j.Industry }, "industry"),
	jobField(func(j *types.JobRecord) *string { return &j.PostedDate }, "posteddate"),
	jobField(func(j *types.JobRecord) *string { return &j.EmploymentMode }, "employmentmode"),
}

func fromFields(fields map[string]any) types.JobRecord {
	// Keys that fold together ("Job Title", "job_title") resolve in sorted order.
	values := make(map[string]string, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		key := fieldKey(k)
		if _, seen := values[key]; seen {
			continue
		}
		if v := fieldValue(fields[k]); v != "" {
			values[key] = v
		}
	}

	var job types.JobRecord
	for _, f := range jobFields {
		for _, key := range f.keys {
			if v, ok := values[key]; ok {
				*f.field(&job) = v
				break
			}
		}
	}
	return job
}

// fieldKey folds "Job Title", "job_title" and "jobTitle" to "jobtitle".
func fieldKey(k string) string {
	var b strings.Builder
	for _, r := range k {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func fieldValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case time.Time:
		// Unquoted YAML dates decode as timestamps.
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.RFC3339)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := fieldValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}
