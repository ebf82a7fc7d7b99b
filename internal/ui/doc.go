// Package ui implements the terminal waiting screen for a Steam login using bubbletea's Elm architecture.
//
// The screen moves through three views:
//  1. [WaitingView] : Show the listener port and Steam URL while waiting for the browser redirect
//  2. [VerifyingView] : Confirm the captured assertion and save the account
//  3. [ResultView] : Display the signed-in account or the failure
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg
// union type. The captured query arrives through a channel fed by the listener's sink, so the loopback session never
// blocks on the terminal.
//
// Keys: o reopens the browser, q (or ctrl+c) cancels the login.
package ui
