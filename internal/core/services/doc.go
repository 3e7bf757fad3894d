// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters) and the WFS protocol steps.
//
// Services are pure Go with no CGO dependencies.
package services
