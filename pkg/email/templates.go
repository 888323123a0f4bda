package email

import (
	"bytes"
	"fmt"
	"html/template"
)

type codeData struct {
	Name string
	Code string
}

const layout = `<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#f4f4f4;">
<table role="presentation" style="width:100%;border-collapse:collapse;"><tr><td align="center" style="padding:40px 0;">
<table role="presentation" style="width:600px;border-collapse:collapse;background-color:#ffffff;border-radius:8px;">
<tr><td style="padding:32px 30px;text-align:center;background-color:#0F766E;border-radius:8px 8px 0 0;">
<h1 style="margin:0;color:#ffffff;font-size:24px;">{{template "title" .}}</h1></td></tr>
<tr><td style="padding:32px 30px;font-size:16px;line-height:24px;color:#333333;">{{template "body" .}}</td></tr>
<tr><td style="padding:24px;text-align:center;background-color:#f8f8f8;border-radius:0 0 8px 8px;font-size:12px;color:#999999;">CRM Imobiliário</td></tr>
</table></td></tr></table>
</body>
</html>`

var (
	verificationTmpl = mustParse(`
{{define "title"}}Confirme seu email{{end}}
{{define "body"}}
<p>Olá {{.Name}},</p>
<p>Use o código abaixo para confirmar seu email:</p>
<p style="font-size:32px;font-weight:bold;letter-spacing:8px;text-align:center;">{{.Code}}</p>
<p style="font-size:14px;color:#666666;">Se você não criou uma conta, ignore este email.</p>
{{end}}`)

	passwordResetTmpl = mustParse(`
{{define "title"}}Recuperação de senha{{end}}
{{define "body"}}
<p>Olá {{.Name}},</p>
<p>Recebemos um pedido para redefinir sua senha. Seu código é:</p>
<p style="font-size:32px;font-weight:bold;letter-spacing:8px;text-align:center;">{{.Code}}</p>
<p style="font-size:14px;color:#666666;">Se você não pediu a redefinição, ignore este email. Sua senha continua a mesma.</p>
{{end}}`)

	invitationTmpl = mustParse(`
{{define "title"}}Você foi convidado{{end}}
{{define "body"}}
<p>Olá {{.Name}},</p>
<p>{{.InviterName}} convidou você para fazer parte da equipe <strong>{{.CompanyName}}</strong> como <strong>{{.Role}}</strong>.</p>
<p style="text-align:center;margin:30px 0;"><a href="{{.SetupURL}}" style="display:inline-block;padding:14px 40px;background-color:#0F766E;color:#ffffff;text-decoration:none;border-radius:6px;font-weight:bold;">Acessar o CRM</a></p>
{{end}}`)
)

func mustParse(blocks string) *template.Template {
	return template.Must(template.Must(template.New("layout").Parse(layout)).Parse(blocks))
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}
