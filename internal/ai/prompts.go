package ai

import (
	"fmt"
	"strings"

	"resumatch/internal/types"
)

// DefaultSystemPrompt frames the model as a screening specialist.
const DefaultSystemPrompt = `You are an expert talent acquisition specialist. You assess how well a candidate's resume fits a job posting. You are precise and honest:

- Only credit skills and experience that the resume actually shows, stated or clearly demonstrated
- Treat spelling variants, abbreviations and common alternative names of a skill as the same skill
- Report scores as integers between 0 and 100
- Reply with a single JSON object and nothing else`

// DefaultUserPrompt is the match prompt template. The first %s receives the
// rendered job posting, the second the resume text.
const DefaultUserPrompt = `Analyze the candidate's resume against the job posting below and determine the candidate's overall suitability for the role.

**Consider:**

1. **Skill Match**: Identify skills stated in the resume and capabilities it demonstrates that align with the job requirements.
   Variations in phrasing, abbreviations and alternative names are the same skill: "ReactJS", "React JS" and "React" all match React; "Node.js", "NodeJS" and "Node JS" are equivalent.

2. **Experience Level**: Evaluate whether the duration and scope of the candidate's roles fit the experience level the job expects.

3. **Overall Fit**: Combine the skill and experience assessment into an overall match score.

**Job Posting:**
-----
%s
-----

**Resume:**
-----
%s
-----

Return a JSON object with exactly these fields:
{
  "match_score": integer 0-100, overall fit,
  "skill_match_score": integer 0-100, degree of skill alignment,
  "experience_match_score": integer 0-100, alignment of experience level,
  "matched_skills": core job skills found in the resume (e.g. ["React", "Python", "SQL"]),
  "missing_skills_from_resume": core job skills not found in the resume (e.g. ["Docker", "Kubernetes"]),
  "suggestions_for_candidate": one or two concise, actionable suggestions to better align with roles like this one,
  "suitability_summary": two or three sentences on the candidate's overall suitability
}`

// RenderJob formats the job fields the model needs. Empty fields are omitted;
// the title falls back to N/A.
func RenderJob(job types.JobRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job Title: %s\n", job.DisplayTitle())
	line := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, v)
		}
	}
	line("Company", job.Company)
	line("Location", job.Location)
	line("Experience Level", job.ExperienceLevel)
	line("Skills Required", job.SkillsRequired)
	if d := strings.TrimSpace(job.Description); d != "" {
		fmt.Fprintf(&b, "\nDescription:\n%s\n", d)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Prompts holds the resolved prompt texts for matching. Empty fields use the
// defaults.
type Prompts struct {
	System string
	User   string
}

func (p Prompts) system() string {
	if strings.TrimSpace(p.System) != "" {
		return p.System
	}
	return DefaultSystemPrompt
}

// buildUser renders the user prompt. A custom template without two %s verbs
// gets the job and resume appended so they are never lost.
func (p Prompts) buildUser(resumeText string, job types.JobRecord) string {
	template := DefaultUserPrompt
	if strings.TrimSpace(p.User) != "" {
		template = p.User
	}
	jobText := RenderJob(job)
	if strings.Count(template, "%s") != 2 {
		return fmt.Sprintf("%s\n\n**Job Posting:**\n-----\n%s\n-----\n\n**Resume:**\n-----\n%s\n-----",
			template, jobText, resumeText)
	}
	return fmt.Sprintf(template, jobText, resumeText)
}
