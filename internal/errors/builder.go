package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.cause = err
	return b
}

// WithCause sets the wrapped error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// Fatal sets the severity to fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	return b.WithSeverity(SeverityWarning)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Build pipeline taxonomy

// ConfigReadError reports a catalog file that is missing or unreadable.
func ConfigReadError(path string, cause error) *ErrorBuilder {
	return WrapError(cause, CategoryConfigRead, "cannot read catalog").
		WithContext("path", path)
}

// ConfigParseError reports a catalog that could not be decoded or parsed.
func ConfigParseError(path string, cause error) *ErrorBuilder {
	return WrapError(cause, CategoryConfigParse, "cannot parse catalog").
		WithContext("path", path)
}

// ArticleReadError reports a missing or unreadable article source.
func ArticleReadError(path string, cause error) *ErrorBuilder {
	return WrapError(cause, CategoryArticleRead, "cannot read article source").
		WithContext("path", path)
}

// TemplateError reports a template load, parse or execution failure.
func TemplateError(name string, cause error) *ErrorBuilder {
	return WrapError(cause, CategoryTemplate, "template failed").
		WithContext("template", name)
}

// OutputDirError reports a failure to prepare, write or swap the output directory.
func OutputDirError(path string, cause error) *ErrorBuilder {
	return WrapError(cause, CategoryOutputDir, "output directory failure").
		WithContext("path", path)
}

// PublishError reports a failed version-control step. Publishing failures are soft.
func PublishError(step string, cause error) *ErrorBuilder {
	return WrapError(cause, CategoryPublish, "publish step failed").
		Warning().
		WithContext("step", step)
}

// Invocation errors

// ValidationError creates a validation error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

// SettingsError creates a settings file error.
func SettingsError(message string) *ErrorBuilder {
	return NewError(CategorySettings, message).Fatal()
}

// RuntimeError creates a runtime error.
func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message).Fatal()
}

// InternalError creates an internal error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
