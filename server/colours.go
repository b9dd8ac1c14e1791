package server

const (
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Red    = "\033[31m"
	Gray   = "\033[90m" // Bright black, often appears as gray

	ResetColor = "\033[0m" // Reset to default color
)

var methodColors = map[string]string{
	"GET":    Green,
	"POST":   Blue,
	"PUT":    Yellow,
	"DELETE": Red,
}
