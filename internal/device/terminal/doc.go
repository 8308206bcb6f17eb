// Package terminal draws the alert overlay and the idle status screen with tcell
// and turns key presses into toggles.
package terminal
