package cli

// Default values for CLI flags and output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// EnvFile is the dotenv file read from the working directory at startup.
	EnvFile = ".env"
	// setCommandArgs is the number of arguments of "config set".
	setCommandArgs = 2
)
