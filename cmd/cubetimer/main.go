// cubetimer - speedcubing timer with smart timer support.
package main

import (
	"github.com/SeamusWaldron/cubetimer/internal/cli"
)

func main() {
	cli.Execute()
}
