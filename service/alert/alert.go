package alert

import "github.com/google/uuid"

const Prefix = "uapush-"

// Generator produces the alert id embedded in each push so a test can find
// the notification it caused.
type Generator interface {
	Generate() string
}

// Func adapts a plain function to a Generator.
type Func func() string

func (f Func) Generate() string {
	return f()
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return Prefix + uuid.NewString()
}

// Default returns random UUID based ids.
func Default() Generator {
	return uuidGenerator{}
}
