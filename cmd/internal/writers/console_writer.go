package writers

import (
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
	"strings"
)

type ConsoleWriter struct {
}

// Write returns every file, preceded by its name, in file name order.
func (c ConsoleWriter) Write(files map[string]string) (string, error) {
	names := lo.Keys(files)
	slices.Sort(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name + "\n")
		sb.WriteString(files[name] + "\n")
	}

	return sb.String(), nil
}
