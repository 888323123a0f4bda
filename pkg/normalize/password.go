package normalize

import "strings"

const specialChars = `!@#$%^&*(),.?":{}|<>`

var commonPasswords = []string{
	"password", "12345678", "password1", "password123", "password456", "qwerty123", "abc12345",
}

// CheckPasswordStrength lists every rule password breaks, in pt-BR. An
// empty result means the password is acceptable.
func CheckPasswordStrength(password string) []string {
	var problems []string

	n := len([]rune(password))
	if n < 8 {
		problems = append(problems, "mínimo 8 caracteres")
	}
	if n > 100 {
		problems = append(problems, "máximo 100 caracteres")
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	if !upper {
		problems = append(problems, "uma letra maiúscula")
	}
	if !lower {
		problems = append(problems, "uma letra minúscula")
	}
	if !digit {
		problems = append(problems, "um número")
	}
	if !special {
		problems = append(problems, "um caractere especial (!@#$%...)")
	}

	lowered := strings.ToLower(password)
	for _, weak := range commonPasswords {
		if strings.Contains(lowered, weak) {
			problems = append(problems, "senha muito comum")
			break
		}
	}
	return problems
}
