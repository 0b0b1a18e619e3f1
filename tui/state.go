package tui

type state int

const (
	loadingState state = iota
	playingState
	errorState
)
