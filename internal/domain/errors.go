package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine-readable code returned to API clients
type ErrorCode string

const (
	// 401
	CodeUnauthorized           ErrorCode = "UNAUTHORIZED"
	CodeInvalidCredentials     ErrorCode = "INVALID_CREDENTIALS"
	CodeTokenExpired           ErrorCode = "TOKEN_EXPIRED"
	CodeInvalidToken           ErrorCode = "INVALID_TOKEN"
	CodeTokenNotFound          ErrorCode = "TOKEN_NOT_FOUND"
	CodeAuthenticationRequired ErrorCode = "AUTHENTICATION_REQUIRED"

	// 403
	CodeForbidden               ErrorCode = "FORBIDDEN"
	CodeInsufficientPermissions ErrorCode = "INSUFFICIENT_PERMISSIONS"
	CodeSubscriptionRequired    ErrorCode = "SUBSCRIPTION_REQUIRED"
	CodeSubscriptionExpired     ErrorCode = "SUBSCRIPTION_EXPIRED"
	CodePlanLimitExceeded       ErrorCode = "PLAN_LIMIT_EXCEEDED"
	CodeAccountDeactivated      ErrorCode = "ACCOUNT_DEACTIVATED"

	// 400
	CodeBadRequest               ErrorCode = "BAD_REQUEST"
	CodeBusinessRuleViolation    ErrorCode = "BUSINESS_RULE_VIOLATION"
	CodeAccountNotVerified       ErrorCode = "ACCOUNT_NOT_VERIFIED"
	CodeAccountAlreadyVerified   ErrorCode = "ACCOUNT_ALREADY_VERIFIED"
	CodeEmailNotVerified         ErrorCode = "EMAIL_NOT_VERIFIED"
	CodeAccountLocked            ErrorCode = "ACCOUNT_LOCKED"
	CodeInvalidVerificationCode  ErrorCode = "INVALID_VERIFICATION_CODE"
	CodeVerificationCodeExpired  ErrorCode = "VERIFICATION_CODE_EXPIRED"
	CodeInvalidPasswordResetCode ErrorCode = "INVALID_PASSWORD_RESET_CODE"
	CodePasswordResetCodeExpired ErrorCode = "PASSWORD_RESET_CODE_EXPIRED"
	CodeOperationNotAllowed      ErrorCode = "OPERATION_NOT_ALLOWED"
	CodeQuotaExceeded            ErrorCode = "QUOTA_EXCEEDED"
	CodePaymentExpired           ErrorCode = "PAYMENT_EXPIRED"
	CodePaymentAlreadyProcessed  ErrorCode = "PAYMENT_ALREADY_PROCESSED"
	CodeInvalidPaymentStatus     ErrorCode = "INVALID_PAYMENT_STATUS"

	// 422
	CodeValidationError      ErrorCode = "VALIDATION_ERROR"
	CodeInvalidInput         ErrorCode = "INVALID_INPUT"
	CodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
	CodeInvalidEmail         ErrorCode = "INVALID_EMAIL"
	CodeInvalidCPF           ErrorCode = "INVALID_CPF"
	CodeInvalidCNPJ          ErrorCode = "INVALID_CNPJ"
	CodeInvalidPhone         ErrorCode = "INVALID_PHONE"
	CodeWeakPassword         ErrorCode = "WEAK_PASSWORD"

	// 404
	CodeNotFound               ErrorCode = "NOT_FOUND"
	CodeUserNotFound           ErrorCode = "USER_NOT_FOUND"
	CodePlanNotFound           ErrorCode = "PLAN_NOT_FOUND"
	CodeSubscriptionNotFound   ErrorCode = "SUBSCRIPTION_NOT_FOUND"
	CodePaymentNotFound        ErrorCode = "PAYMENT_NOT_FOUND"
	CodePendingPaymentNotFound ErrorCode = "PENDING_PAYMENT_NOT_FOUND"

	// 409
	CodeConflict              ErrorCode = "CONFLICT"
	CodeEmailAlreadyExists    ErrorCode = "EMAIL_ALREADY_EXISTS"
	CodeResourceAlreadyExists ErrorCode = "RESOURCE_ALREADY_EXISTS"
	CodeDuplicateSubscription ErrorCode = "DUPLICATE_SUBSCRIPTION"

	// 429
	CodeTooManyRequests     ErrorCode = "TOO_MANY_REQUESTS"
	CodeRateLimitExceeded   ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeTooManyAttempts     ErrorCode = "TOO_MANY_ATTEMPTS"
	CodeResendLimitExceeded ErrorCode = "RESEND_LIMIT_EXCEEDED"

	// 502
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
	CodePaymentGatewayError  ErrorCode = "PAYMENT_GATEWAY_ERROR"
	CodeEmailSendFailed      ErrorCode = "EMAIL_SEND_FAILED"
	CodeSMSSendFailed        ErrorCode = "SMS_SEND_FAILED"

	// 500
	CodeInternalServerError ErrorCode = "INTERNAL_SERVER_ERROR"
	CodeDatabaseError       ErrorCode = "DATABASE_ERROR"
)

type errorDef struct {
	status  int
	message string
}

var errorDefs = map[ErrorCode]errorDef{
	CodeUnauthorized:           {http.StatusUnauthorized, "Não autorizado"},
	CodeInvalidCredentials:     {http.StatusUnauthorized, "Email ou senha incorretos"},
	CodeTokenExpired:           {http.StatusUnauthorized, "Sua sessão expirou. Por favor, faça login novamente."},
	CodeInvalidToken:           {http.StatusUnauthorized, "Token inválido"},
	CodeTokenNotFound:          {http.StatusUnauthorized, "Token não fornecido"},
	CodeAuthenticationRequired: {http.StatusUnauthorized, "Autenticação necessária"},

	CodeForbidden:               {http.StatusForbidden, "Acesso negado"},
	CodeInsufficientPermissions: {http.StatusForbidden, "Você não tem permissão para realizar esta ação"},
	CodeSubscriptionRequired:    {http.StatusForbidden, "Assinatura ativa necessária"},
	CodeSubscriptionExpired:     {http.StatusForbidden, "Sua assinatura expirou"},
	CodePlanLimitExceeded:       {http.StatusForbidden, "Limite do plano atingido"},
	CodeAccountDeactivated:      {http.StatusForbidden, "Sua conta foi desativada. Entre em contato com o administrador."},

	CodeBadRequest:               {http.StatusBadRequest, "Requisição inválida"},
	CodeBusinessRuleViolation:    {http.StatusBadRequest, "Operação viola uma regra de negócio"},
	CodeAccountNotVerified:       {http.StatusBadRequest, "Conta não verificada"},
	CodeAccountAlreadyVerified:   {http.StatusBadRequest, "Esta conta já foi verificada"},
	CodeEmailNotVerified:         {http.StatusBadRequest, "Email não verificado. Verifique sua caixa de entrada."},
	CodeAccountLocked:            {http.StatusBadRequest, "Conta temporariamente bloqueada"},
	CodeInvalidVerificationCode:  {http.StatusBadRequest, "Código de verificação inválido"},
	CodeVerificationCodeExpired:  {http.StatusBadRequest, "Código de verificação expirado. Solicite um novo código."},
	CodeInvalidPasswordResetCode: {http.StatusBadRequest, "Código de recuperação inválido"},
	CodePasswordResetCodeExpired: {http.StatusBadRequest, "Código de recuperação expirado. Solicite um novo código."},
	CodeOperationNotAllowed:      {http.StatusBadRequest, "Operação não permitida"},
	CodeQuotaExceeded:            {http.StatusBadRequest, "Cota excedida"},
	CodePaymentExpired:           {http.StatusBadRequest, "Pagamento expirado. Por favor, inicie um novo processo de pagamento."},
	CodePaymentAlreadyProcessed:  {http.StatusBadRequest, "Este pagamento já foi processado"},
	CodeInvalidPaymentStatus:     {http.StatusBadRequest, "Status de pagamento inválido"},

	CodeValidationError:      {http.StatusUnprocessableEntity, "Dados inválidos"},
	CodeInvalidInput:         {http.StatusUnprocessableEntity, "Entrada inválida"},
	CodeMissingRequiredField: {http.StatusUnprocessableEntity, "Campo obrigatório não informado"},
	CodeInvalidEmail:         {http.StatusUnprocessableEntity, "Email inválido"},
	CodeInvalidCPF:           {http.StatusUnprocessableEntity, "CPF inválido"},
	CodeInvalidCNPJ:          {http.StatusUnprocessableEntity, "CNPJ inválido"},
	CodeInvalidPhone:         {http.StatusUnprocessableEntity, "Telefone inválido"},
	CodeWeakPassword:         {http.StatusUnprocessableEntity, "Senha fraca"},

	CodeNotFound:               {http.StatusNotFound, "Recurso não encontrado"},
	CodeUserNotFound:           {http.StatusNotFound, "Usuário não encontrado"},
	CodePlanNotFound:           {http.StatusNotFound, "Plano não encontrado"},
	CodeSubscriptionNotFound:   {http.StatusNotFound, "Assinatura não encontrada"},
	CodePaymentNotFound:        {http.StatusNotFound, "Pagamento não encontrado"},
	CodePendingPaymentNotFound: {http.StatusNotFound, "Pagamento pendente não encontrado"},

	CodeConflict:              {http.StatusConflict, "Conflito"},
	CodeEmailAlreadyExists:    {http.StatusConflict, "Este email já está cadastrado"},
	CodeResourceAlreadyExists: {http.StatusConflict, "Recurso já existe"},
	CodeDuplicateSubscription: {http.StatusConflict, "Você já possui uma assinatura ativa"},

	CodeTooManyRequests:     {http.StatusTooManyRequests, "Muitas requisições. Tente novamente mais tarde."},
	CodeRateLimitExceeded:   {http.StatusTooManyRequests, "Limite de requisições excedido"},
	CodeTooManyAttempts:     {http.StatusTooManyRequests, "Muitas tentativas. Aguarde antes de tentar novamente."},
	CodeResendLimitExceeded: {http.StatusTooManyRequests, "Limite de reenvios atingido"},

	CodeExternalServiceError: {http.StatusBadGateway, "Erro em serviço externo"},
	CodePaymentGatewayError:  {http.StatusBadGateway, "Erro ao processar pagamento"},
	CodeEmailSendFailed:      {http.StatusBadGateway, "Não foi possível enviar o email"},
	CodeSMSSendFailed:        {http.StatusBadGateway, "Não foi possível enviar o SMS"},

	CodeInternalServerError: {http.StatusInternalServerError, "Erro interno do servidor"},
	CodeDatabaseError:       {http.StatusInternalServerError, "Erro ao acessar o banco de dados"},
}

// AppError is a classified failure that maps 1:1 to an HTTP response
type AppError struct {
	Code     ErrorCode
	Status   int
	Message  string
	Metadata map[string]any
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithMetadata attaches a client-visible detail (e.g. remainingAttempts)
func (e *AppError) WithMetadata(key string, value any) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// Wrap keeps the underlying cause for logging; it is never sent to clients
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// NewError builds an AppError for code. An empty message falls back to the
// code's default pt-BR message.
func NewError(code ErrorCode, message string) *AppError {
	def, ok := errorDefs[code]
	if !ok {
		def = errorDefs[CodeInternalServerError]
	}
	if message == "" {
		message = def.message
	}
	return &AppError{Code: code, Status: def.status, Message: message}
}

// StatusFor returns the HTTP status registered for code
func StatusFor(code ErrorCode) int {
	if def, ok := errorDefs[code]; ok {
		return def.status
	}
	return http.StatusInternalServerError
}

func NotFound(message string) *AppError   { return NewError(CodeNotFound, message) }
func Forbidden(message string) *AppError  { return NewError(CodeForbidden, message) }
func BadRequest(message string) *AppError { return NewError(CodeBadRequest, message) }
func Conflict(message string) *AppError   { return NewError(CodeConflict, message) }
func Validation(message string) *AppError { return NewError(CodeValidationError, message) }
func Internal(message string) *AppError   { return NewError(CodeInternalServerError, message) }
func External(message string) *AppError   { return NewError(CodeExternalServiceError, message) }

// AsAppError extracts an AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
