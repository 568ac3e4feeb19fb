package cli

var SplitArgs = splitArgs
