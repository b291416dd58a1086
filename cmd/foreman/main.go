package main

import (
	"github.com/Paintersrp/foreman/internal/cli"
	"github.com/Paintersrp/foreman/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
