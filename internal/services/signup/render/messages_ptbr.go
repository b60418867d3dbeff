package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")

	message.SetString(lang, "signup.success", "Conta criada! Verifique seu e-mail para continuar.")
	message.SetString(lang, "signup.field.companyName", "Nome da empresa")
	message.SetString(lang, "signup.field.fullName", "Nome completo")
	message.SetString(lang, "signup.field.email", "E-mail")
	message.SetString(lang, "signup.field.password", "Senha")
	message.SetString(lang, "signup.field.confirmPassword", "Confirmação de senha")
	message.SetString(lang, "signup.field.planName", "Plano")
	message.SetString(lang, "signup.error.required", "%s é obrigatório.")
	message.SetString(lang, "signup.error.plan_required", "Escolha um plano.")
	message.SetString(lang, "signup.error.password_mismatch", "As senhas não conferem.")
	message.SetString(lang, "signup.error.invalid_email", "Informe um e-mail válido.")
	message.SetString(lang, "signup.error.server", "Falha no cadastro: %s")
	message.SetString(lang, "signup.error.transport", "Não foi possível falar com o servidor. Tente novamente.")
}
