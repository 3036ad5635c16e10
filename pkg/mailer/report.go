package mailer

import (
	"bytes"
	"html/template"

	"github.com/quocanhngo/deadlinemind/internal/model"
)

const defaultReportSubject = "Vehicle Deadline Summary"

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#f5f7fa;font-family:Arial,sans-serif;line-height:1.6;">
    <div style="max-width:640px;margin:32px auto;background:#ffffff;border-radius:12px;overflow:hidden;border:1px solid #e2e8f0;">
        <!-- Header -->
        <div style="background:#1e3a8a;padding:24px;text-align:center;">
            <h2 style="color:#fff;margin:0;font-size:22px;">{{.Subject}}</h2>
        </div>

        <!-- Body -->
        <div style="padding:24px;">
            <p style="color:#1e293b;font-size:15px;margin:0 0 12px;">Hi {{.Name}},</p>
            <p style="color:#475569;font-size:14px;margin:0 0 16px;">Here is your vehicle summary:</p>
{{- if .Rows}}
            <table border="1" style="border-collapse:collapse;width:100%;margin-top:20px;font-size:14px;">
                <thead style="background-color:#f2f2f2;">
                    <tr>
                        <th style="padding:10px;text-align:left;">Model</th>
                        <th style="padding:10px;text-align:left;">Registration</th>
                        <th style="padding:10px;text-align:left;">Tax Due</th>
                        <th style="padding:10px;text-align:left;">Insurance Due</th>
                        <th style="padding:10px;text-align:left;">Status</th>
                    </tr>
                </thead>
                <tbody>
{{- range .Rows}}
                    <tr>
                        <td style="padding:10px;">{{.Model}}</td>
                        <td style="padding:10px;">{{.RegistrationNumber}}</td>
                        <td style="padding:10px;">{{.TaxExpiryDate}}</td>
                        <td style="padding:10px;">{{.InsuranceExpiryDate}}</td>
                        <td style="padding:10px;">{{.OverallStatus}}</td>
                    </tr>
{{- end}}
                </tbody>
            </table>
{{- else}}
            <p style="margin-top:20px;">You currently have no vehicles with relevant updates.</p>
{{- end}}
            <br/>
            <p style="color:#475569;font-size:14px;">Regards,<br/>The DeadlineMind Team</p>
        </div>
    </div>
</body>
</html>`))

// ReportRenderer renders vehicle reports. It holds no state, so the same
// inputs always produce the same HTML.
type ReportRenderer struct{}

func NewReportRenderer() *ReportRenderer {
	return &ReportRenderer{}
}

// RenderVehicleReport returns the HTML body of a vehicle report
func (r *ReportRenderer) RenderVehicleReport(recipientName string, rows []model.VehicleReportRow, subject string) (string, error) {
	if recipientName == "" {
		recipientName = "there"
	}
	if subject == "" {
		subject = defaultReportSubject
	}

	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, map[string]interface{}{
		"Name":    recipientName,
		"Subject": subject,
		"Rows":    rows,
	})
	return buf.String(), err
}
