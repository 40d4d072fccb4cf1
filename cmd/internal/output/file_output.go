package output

import (
	"fmt"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/writers"
	"go.uber.org/zap"
	"strconv"
)

// WriteFiles saves the files to dest, and prints them when console is set or there is no dest. The files are
// staged in a temporary directory first so a failed write does not leave dest half updated.
func WriteFiles(files map[string]string, dest string, console bool) error {
	if dest != "" {
		staging := writers.NewFileWriterToTempDir()

		defer func() {
			if err := staging.Remove(); err != nil {
				zap.L().Error(err.Error())
			}
		}()

		if _, err := staging.Write(files); err != nil {
			return err
		}

		copied, err := staging.CopyTo(dest)
		if err != nil {
			return err
		}

		zap.L().Info("Wrote " + strconv.Itoa(copied) + " changed file(s) to " + dest)
	}

	if console || dest == "" {
		consoleWriter := writers.ConsoleWriter{}
		output, err := consoleWriter.Write(files)
		if err != nil {
			return err
		}
		fmt.Print(output)
	}

	return nil
}
