package skills

import (
	"bufio"
	"os"
	"strings"

	"resumatch/internal/errors"
)

// DefaultSeedSkills is the curated vocabulary every process starts from:
// technical, business, language and soft skills plus common tooling.
var DefaultSeedSkills = []string{
	"Python", "Java", "SQL", "Excel", "Communication", "Project Management",
	"Machine Learning", "Data Analysis", "Leadership", "Problem Solving",
	"AWS", "Docker", "Kubernetes", "C++", "TensorFlow", "ReactJS",
	"JavaScript", "HTML", "HTML5", "CSS", "CSS3", "Agile", "Scrum", "Git",
	"Linux", "Data Visualization", "Cybersecurity", "Cloud Computing",
	"DevOps", "Artificial Intelligence", "Natural Language Processing",
	"NodeJS", "ExpressJS", "Django", "Flask", "RESTful APIs", "GraphQL",
	"NoSQL", "MongoDB", "PostgreSQL", "MySQL", "Data Engineering",
	"Big Data", "Hadoop", "Spark", "ETL", "Business Analysis",
	"Digital Marketing", "SEO", "Content Creation", "Social Media Marketing",
	"Email Marketing", "Salesforce", "CRM", "Customer Service",
	"Negotiation", "Time Management", "Critical Thinking", "Adaptability",
	"Teamwork", "Interpersonal Skills", "Public Speaking",
	"Presentation Skills", "Networking", "Research Skills",
	"Financial Analysis", "Budgeting", "Accounting", "Risk Management",
	"Quality Assurance", "Testing", "User Experience", "UI/UX Design",
	"Graphic Design", "Adobe Creative Suite", "Video Editing",
	"English", "Spanish", "French", "German", "Mandarin", "Japanese",
	"Korean", "Russian", "Turkish", "Arabic",
	"GitHub", "JIRA", "Trello", "Slack", "Zoom", "Microsoft Teams", "Notion",
	"Tailwind CSS", "Tailwind", "TypeScript", "TailwindCSS", "Figma",
	"Sketch", "Adobe XD", "Canva", "Power BI", "Tableau", "Looker",
	"QlikView", "PowerPoint", "Word", "Google Analytics", "Google Ads",
	"Facebook Ads", "Instagram Ads",
}

// LoadSeedFile reads extra seed skills, one per line. Blank lines and lines
// starting with '#' are ignored.
func LoadSeedFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to open seed skills file", err).
			WithContext("path", path)
	}
	defer func() { _ = f.Close() }()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read seed skills file", err).
			WithContext("path", path)
	}
	return out, nil
}

// SeedSkills returns the default seed list extended with the skills of an
// optional seed file.
func SeedSkills(seedFile string) ([]string, error) {
	seed := append([]string(nil), DefaultSeedSkills...)
	if seedFile == "" {
		return seed, nil
	}
	extra, err := LoadSeedFile(seedFile)
	if err != nil {
		return nil, err
	}
	return append(seed, extra...), nil
}
