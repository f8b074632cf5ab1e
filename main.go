package main

import (
	_ "github.com/tliron/commonlog/simple"

	"github.com/toolprint/justparse/cmd"
)

func main() {
	cmd.Execute()
}
