package kv

const (
	KeyDeclarationQueue      = "numbers:declarations:queue"
	KeyDeclarationProcessing = "numbers:declarations:processing"
	KeySchedulerLease        = "numbers:scheduler:lease"
	KeyRateLimit             = "numbers:ratelimit:%d:%s"
)
