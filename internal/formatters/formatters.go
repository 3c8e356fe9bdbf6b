package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"resumatch/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "Report", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "Report", &ReportMarkdownFormatter{})
	registry.RegisterFormatter("text", "RankReport", &RankTextFormatter{})
	registry.RegisterFormatter("markdown", "RankReport", &RankMarkdownFormatter{})
	registry.RegisterFormatter("text", "SkillListing", &SkillListingFormatter{})
	registry.RegisterFormatter("markdown", "SkillListing", &SkillListingFormatter{markdown: true})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.Report:
		return "Report"
	case types.RankReport:
		return "RankReport"
	case types.SkillListing:
		return "SkillListing"
	default:
		return "any"
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ReportTextFormatter renders a single match for the terminal
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	report, ok := data.(types.Report)
	if !ok {
		return "", fmt.Errorf("expected Report, got %T", data)
	}

	var output strings.Builder
	output.WriteString(titleStyle.Render("=== MATCH: "+report.JobTitle+" ===") + "\n\n")
	writeScores(&output, report.Result)

	output.WriteString(labelStyle.Render("Model:") + " " + report.ModelUsed + "\n")
	if report.Fallback {
		output.WriteString(warnStyle.Render(fmt.Sprintf("Fell back from %s: %s", report.Requested, report.FallbackReason)) + "\n")
	}
	output.WriteString("\n")

	writeList(&output, "Matched skills:", report.Result.MatchedSkills)
	writeList(&output, "Missing skills:", report.Result.MissingSkills)

	if report.Result.Suggestions != "" {
		output.WriteString(labelStyle.Render("Suggestions:") + "\n")
		output.WriteString(report.Result.Suggestions + "\n\n")
	}
	if report.Result.Detail != "" {
		output.WriteString(labelStyle.Render("Summary:") + "\n")
		output.WriteString(report.Result.Detail + "\n")
	}

	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "Report"
}

func writeScores(output *strings.Builder, r types.MatchResult) {
	fmt.Fprintf(output, "%s %d/100\n", labelStyle.Render("Match score:"), r.MatchScore)
	fmt.Fprintf(output, "%s %d/100\n", labelStyle.Render("Skill match:"), r.SkillMatch)
	fmt.Fprintf(output, "%s %d/100\n", labelStyle.Render("Experience match:"), r.ExperienceMatch)
}

func writeList(output *strings.Builder, label string, items []string) {
	output.WriteString(labelStyle.Render(label) + "\n")
	if len(items) == 0 {
		output.WriteString("  (none)\n\n")
		return
	}
	for _, item := range items {
		output.WriteString("  - " + item + "\n")
	}
	output.WriteString("\n")
}

// ReportMarkdownFormatter renders a single match as markdown
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	report, ok := data.(types.Report)
	if !ok {
		return "", fmt.Errorf("expected Report, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "# Match: %s\n\n", report.JobTitle)
	output.WriteString("| Score | Value |\n|---|---|\n")
	fmt.Fprintf(&output, "| Match | %d |\n", report.Result.MatchScore)
	fmt.Fprintf(&output, "| Skills | %d |\n", report.Result.SkillMatch)
	fmt.Fprintf(&output, "| Experience | %d |\n\n", report.Result.ExperienceMatch)
	fmt.Fprintf(&output, "**Model:** %s\n\n", report.ModelUsed)
	if report.Fallback {
		fmt.Fprintf(&output, "> Fell back from %s: %s\n\n", report.Requested, report.FallbackReason)
	}

	writeMarkdownList(&output, "Matched Skills", report.Result.MatchedSkills)
	writeMarkdownList(&output, "Missing Skills", report.Result.MissingSkills)

	if report.Result.Suggestions != "" {
		output.WriteString("## Suggestions\n\n" + report.Result.Suggestions + "\n\n")
	}
	if report.Result.Detail != "" {
		output.WriteString("## Summary\n\n" + report.Result.Detail + "\n")
	}
	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string {
	return "Report"
}

func writeMarkdownList(output *strings.Builder, heading string, items []string) {
	fmt.Fprintf(output, "## %s\n\n", heading)
	if len(items) == 0 {
		output.WriteString("_None_\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
	output.WriteString("\n")
}

// RankTextFormatter renders ranked jobs for the terminal
type RankTextFormatter struct{}

func (rtf *RankTextFormatter) Format(data any) (string, error) {
	ranked, ok := data.(types.RankReport)
	if !ok {
		return "", fmt.Errorf("expected RankReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString(titleStyle.Render("=== RANKED JOBS ===") + "\n\n")
	fmt.Fprintf(&output, "%s %s\n", labelStyle.Render("Strategy:"), ranked.Strategy)
	fmt.Fprintf(&output, "%s %d\n", labelStyle.Render("Years of experience:"), ranked.YearsExperience)
	fmt.Fprintf(&output, "%s %s\n\n", labelStyle.Render("Resume skills:"), joinOrNone(ranked.ResumeSkills))

	if len(ranked.Results) == 0 {
		output.WriteString("No jobs to rank.\n")
		return output.String(), nil
	}
	for i, r := range ranked.Results {
		line := fmt.Sprintf("%2d. [%3d] %s", i+1, r.Result.MatchScore, r.JobTitle)
		if r.Company != "" {
			line += " @ " + r.Company
		}
		output.WriteString(line + "\n")
		fmt.Fprintf(&output, "      missing: %s\n", joinOrNone(r.Result.MissingSkills))
		if r.Fallback {
			output.WriteString("      " + warnStyle.Render("fallback: "+r.FallbackReason) + "\n")
		}
	}
	return output.String(), nil
}

func (rtf *RankTextFormatter) SupportedType() string {
	return "RankReport"
}

// RankMarkdownFormatter renders ranked jobs as a markdown table
type RankMarkdownFormatter struct{}

func (rmf *RankMarkdownFormatter) Format(data any) (string, error) {
	ranked, ok := data.(types.RankReport)
	if !ok {
		return "", fmt.Errorf("expected RankReport, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Ranked Jobs\n\n")
	fmt.Fprintf(&output, "**Strategy:** %s  \n**Years of experience:** %d  \n**Resume skills:** %s\n\n",
		ranked.Strategy, ranked.YearsExperience, joinOrNone(ranked.ResumeSkills))

	output.WriteString("| # | Job | Company | Match | Skills | Experience | Missing |\n")
	output.WriteString("|---|---|---|---|---|---|---|\n")
	for i, r := range ranked.Results {
		fmt.Fprintf(&output, "| %d | %s | %s | %d | %d | %d | %s |\n",
			i+1, r.JobTitle, r.Company, r.Result.MatchScore, r.Result.SkillMatch,
			r.Result.ExperienceMatch, joinOrNone(r.Result.MissingSkills))
	}
	return output.String(), nil
}

func (rmf *RankMarkdownFormatter) SupportedType() string {
	return "RankReport"
}

// SkillListingFormatter renders a skill list as text or markdown
type SkillListingFormatter struct {
	markdown bool
}

func (sf *SkillListingFormatter) Format(data any) (string, error) {
	listing, ok := data.(types.SkillListing)
	if !ok {
		return "", fmt.Errorf("expected SkillListing, got %T", data)
	}

	var output strings.Builder
	if sf.markdown {
		fmt.Fprintf(&output, "# Skills (%s)\n\n", listing.Source)
	} else {
		output.WriteString(titleStyle.Render(fmt.Sprintf("=== SKILLS (%s) ===", listing.Source)) + "\n")
	}
	fmt.Fprintf(&output, "%d skills\n\n", listing.Count)
	for _, skill := range listing.Skills {
		output.WriteString("- " + skill + "\n")
	}
	return output.String(), nil
}

func (sf *SkillListingFormatter) SupportedType() string {
	return "SkillListing"
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// GlobalRegistry is the default formatter registry
var GlobalRegistry = NewFormatterRegistry()
