package procedure

import "fmt"

// RegistrationError wraps a failure to execute a procedure-creation script.
// The procedure name is carried for diagnosability; the underlying cause is
// preserved for errors.Is/As.
type RegistrationError struct {
	Procedure string
	Err       error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("failed to register procedure %q: %v", e.Procedure, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// ExecutionError reports a procedure execution that returned an unexpected
// result shape instead of a row set or an empty success.
type ExecutionError struct {
	Procedure string
	Detail    string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution of procedure %q failed: %s", e.Procedure, e.Detail)
}

// NotAProcedureNameError reports an execute call whose name is not a simple
// SQL identifier.
type NotAProcedureNameError struct {
	Name string
	Err  error
}

func (e *NotAProcedureNameError) Error() string {
	return fmt.Sprintf("%q is not a procedure name: %v", e.Name, e.Err)
}

func (e *NotAProcedureNameError) Unwrap() error { return e.Err }
