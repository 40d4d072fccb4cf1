package writers

// Writer writes the generated files, returning where they were written.
type Writer interface {
	Write(files map[string]string) (string, error)
}

var _ Writer = FileWriter{}
var _ Writer = ConsoleWriter{}
