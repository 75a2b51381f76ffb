package email

import (
	"bytes"
	"fmt"
	"html/template"

	"qualifyr/internal/platform/models"
)

var welcomeHTML = template.Must(template.New("welcome").Parse(`<h2>Welcome to Qualifyr{{if .Company}}, {{.Company}}{{end}}!</h2>
<p>Your <strong>{{.Plan}}</strong> trial is active for the next {{.TrialDays}} days. You can qualify up to {{.LeadsLimit}} leads per month on this plan.</p>
<p>Your API key was returned once in the signup response. Keep it secret; you can rotate it at any time.</p>
<p>Start capturing leads by POSTing to <code>/api/v1/leads</code> with your key in the Authorization header.</p>`))

var hotLeadHTML = template.Must(template.New("hot_lead").Parse(`<h2>Hot lead: {{.Email}}</h2>
<table>
<tr><td>Name</td><td>{{.FirstName}} {{.LastName}}</td></tr>
<tr><td>Company</td><td>{{.Company}}</td></tr>
<tr><td>Score</td><td>{{.QualificationScore}}</td></tr>
<tr><td>Stage</td><td>{{.QualificationStage}}</td></tr>
<tr><td>Source</td><td>{{.Source}}</td></tr>
</table>
<p>This lead is ready for a demo. Reach out while the conversation is warm.</p>`))

type WelcomeData struct {
	Company    string
	Plan       string
	LeadsLimit int
	TrialDays  int
}

func WelcomeMessage(to string, data WelcomeData) (Message, error) {
	var buf bytes.Buffer
	if err := welcomeHTML.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render welcome email: %w", err)
	}

	text := fmt.Sprintf(
		"Welcome to Qualifyr!\n\nYour %s trial is active for the next %d days. You can qualify up to %d leads per month on this plan.\n\nYour API key was returned once in the signup response. Keep it secret; you can rotate it at any time.\n",
		data.Plan, data.TrialDays, data.LeadsLimit,
	)

	return Message{
		To:      to,
		Subject: "Welcome to Qualifyr",
		Text:    text,
		HTML:    buf.String(),
	}, nil
}

func HotLeadMessage(to string, lead *models.Lead) (Message, error) {
	var buf bytes.Buffer
	if err := hotLeadHTML.Execute(&buf, lead); err != nil {
		return Message{}, fmt.Errorf("render hot lead email: %w", err)
	}

	text := fmt.Sprintf(
		"Hot lead: %s\n\nName: %s %s\nCompany: %s\nScore: %d\nStage: %s\nSource: %s\n\nThis lead is ready for a demo. Reach out while the conversation is warm.\n",
		lead.Email, lead.FirstName, lead.LastName, lead.Company,
		lead.QualificationScore, lead.QualificationStage, lead.Source,
	)

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Hot lead: %s scored %d", lead.Email, lead.QualificationScore),
		Text:    text,
		HTML:    buf.String(),
	}, nil
}
