package terminal

type commandGroup uint8

const (
	otherCmds commandGroup = iota
	runCmds
)

type commandGroupDescription struct {
	description string
	group       commandGroup
}

var commandGroupDescriptions = []commandGroupDescription{
	{"Running the program", runCmds},
	{"Other commands", otherCmds},
}
