// Package tui is the interactive terminal driver for a wizard.
//
// The model renders the step list, the current step's fields and the
// progress bar, and turns key presses into engine calls. Navigation runs in
// a tea.Cmd so that before_leave confirmations, which block the engine on a
// Confirmer, can be answered from the same screen.
//
// # Keys
//
//	tab / shift+tab   move between fields
//	space, ←, →       change a yes/no or select field
//	enter             save the step and continue (finish on the last step)
//	pgup, ctrl+p      previous step
//	ctrl+s            skip an optional step
//	alt+1 .. alt+9    jump to a step
//	ctrl+r            reset every answer
//	esc, ctrl+c       quit
package tui
