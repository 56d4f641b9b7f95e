// fq force quits every non-essential application on the desktop.
package main

import (
	"os"

	"github.com/forcequit/fq/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
