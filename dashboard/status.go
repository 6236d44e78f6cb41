package dashboard

// Status is the fetch state of a view. It is one of Loading, Ready,
// AuthRequired or Transient.
type Status interface {
	isStatus()
	String() string
}

type Loading struct{}

type Ready struct{}

// AuthRequired means the session is missing, expired or was denied by the
// provider. Connect and Retry are offered.
type AuthRequired struct {
	Message string
}

// Transient covers every other failure. Only Retry is offered.
type Transient struct {
	Message string
}

func (Loading) isStatus()      {}
func (Ready) isStatus()        {}
func (AuthRequired) isStatus() {}
func (Transient) isStatus()    {}

func (Loading) String() string      { return "loading" }
func (Ready) String() string        { return "ready" }
func (AuthRequired) String() string { return "auth_required" }
func (Transient) String() string    { return "transient" }

// ErrorMessage returns the user facing message of an error status.
func ErrorMessage(s Status) (string, bool) {
	switch s := s.(type) {
	case AuthRequired:
		return s.Message, true
	case Transient:
		return s.Message, true
	default:
		return "", false
	}
}
