// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"

	"github.com/pdiddy/freeplane-helper/internal/convert"
	"github.com/pdiddy/freeplane-helper/internal/repair"
	"github.com/pdiddy/freeplane-helper/internal/runner"
	"github.com/pdiddy/freeplane-helper/pkg/types"
)

// Process exit codes. A missing tool is reported as such whichever stage
// noticed it.
const (
	exitOK          = 0
	exitError       = 1
	exitToolMissing = 2
	exitPrepare     = 3
	exitExport      = 4
	exitRepair      = 5
	exitConvert     = 6
	exitPDF         = 7
)

var stageExitCodes = map[types.Stage]int{
	types.StagePrepare: exitPrepare,
	types.StageExport:  exitExport,
	types.StageRepair:  exitRepair,
	types.StageConvert: exitConvert,
	types.StagePDF:     exitPDF,
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, runner.ErrToolNotFound) {
		return exitToolMissing
	}
	var se *convert.StageError
	if errors.As(err, &se) {
		if code, ok := stageExitCodes[se.Stage]; ok {
			return code
		}
	}
	var ne *repair.NumberingError
	if errors.As(err, &ne) {
		return exitRepair
	}
	return exitError
}
