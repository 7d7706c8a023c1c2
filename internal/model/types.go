package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Port is a loopback TCP port number. Using uint16 makes out-of-range
// values unrepresentable once a Port has been constructed.
type Port uint16

// String returns the decimal representation of the port.
func (p Port) String() string {
	return strconv.Itoa(int(p))
}

// MaxPort is the highest valid TCP port number (2^16 - 1).
const MaxPort = 65535

// MaxClients is the number of distinct single-letter client identifiers
// ('a' through 'z'). A listing with more live mediators than this cannot
// be addressed and is rejected with ErrTooManyClients.
const MaxClients = 26

// Sentinel errors shared across packages. Callers match them with errors.Is.
var (
	// ErrTooManyClients is returned when more mediators are live than there
	// are client letters to assign.
	ErrTooManyClients = errors.New("too many mediator clients")

	// ErrPortRangeOverflow is returned when base+window runs past MaxPort.
	ErrPortRangeOverflow = errors.New("port range exceeds 65535")

	// ErrNoSuchClient is returned when a tab ID refers to a client letter
	// that has no live mediator behind it.
	ErrNoSuchClient = errors.New("no such client")

	// ErrInvalidTabID is returned by ParseTabID for malformed input.
	ErrInvalidTabID = errors.New("invalid tab id")
)

// ClientID is the single lowercase letter identifying one mediator in a
// merged listing. It is assigned by the mediator's rank in the live-port
// list, never by response arrival order.
type ClientID byte

// ClientIDForIndex maps a position in the live-port list to its letter:
// 0 → 'a', 1 → 'b', … 25 → 'z'. Indexes outside [0, 26) have no letter.
func ClientIDForIndex(i int) (ClientID, error) {
	if i < 0 || i >= MaxClients {
		return 0, fmt.Errorf("%w: index %d has no letter (max %d clients)", ErrTooManyClients, i, MaxClients)
	}
	return ClientID('a' + byte(i)), nil
}

// IsValid reports whether c is one of 'a'..'z'.
func (c ClientID) IsValid() bool {
	return c >= 'a' && c <= 'z'
}

// String returns the letter itself, e.g. "a".
func (c ClientID) String() string {
	return string(rune(c))
}

// Prefix returns the letter followed by the separator dot, e.g. "a.".
// Every tab line of this client is emitted with this prefix.
func (c ClientID) Prefix() string {
	return c.String() + "."
}

// ParseClientID converts a one-letter string into a ClientID.
func ParseClientID(s string) (ClientID, error) {
	if len(s) != 1 || !ClientID(s[0]).IsValid() {
		return 0, fmt.Errorf("invalid client id %q (valid: a-z)", s)
	}
	return ClientID(s[0]), nil
}

// Client pairs a live mediator port with the letter assigned to it.
type Client struct {
	ID   ClientID `json:"id"`
	Port Port     `json:"port"`
}

// Address returns the host:port used when talking to the mediator.
func (c Client) Address() string {
	return "localhost:" + c.Port.String()
}

// ClientsForPorts assigns letters to an ordered live-port list. The result
// has the same order as ports.
func ClientsForPorts(ports []Port) ([]Client, error) {
	if len(ports) > MaxClients {
		return nil, fmt.Errorf("%w: %d live mediators, at most %d can be addressed", ErrTooManyClients, len(ports), MaxClients)
	}
	clients := make([]Client, len(ports))
	for i, p := range ports {
		id, err := ClientIDForIndex(i)
		if err != nil {
			return nil, err
		}
		clients[i] = Client{ID: id, Port: p}
	}
	return clients, nil
}

// FindClient returns the client with the given letter.
func FindClient(clients []Client, id ClientID) (Client, error) {
	for _, c := range clients {
		if c.ID == id {
			return c, nil
		}
	}
	return Client{}, fmt.Errorf("%w: %q", ErrNoSuchClient, id.String())
}

// ClientListing is one mediator's block of the merged listing: the tab
// records it returned, in response order, without the letter prefix.
type ClientListing struct {
	Client
	Tabs []string `json:"tabs"`
}

// Lines returns the tab records of this client with the letter prefix
// applied, e.g. "a.1.2\tTitle\thttps://…".
func (l ClientListing) Lines() []string {
	lines := make([]string, len(l.Tabs))
	prefix := l.ID.Prefix()
	for i, tab := range l.Tabs {
		lines[i] = prefix + tab
	}
	return lines
}

// TabID is a fully qualified tab reference as printed by the list
// command: "<client>.<window>.<tab>". Window and Tab are kept as opaque
// strings; the mediator is responsible for validating them.
type TabID struct {
	Client ClientID
	Window string
	Tab    string
}

// String formats the tab ID back into its "a.1.2" form.
func (t TabID) String() string {
	return fmt.Sprintf("%s.%s.%s", t.Client, t.Window, t.Tab)
}

// ParseTabID parses a tab ID. Anything after the first whitespace is
// ignored, so a whole line of list output ("a.1.2\tTitle\tURL") is
// accepted too.
func ParseTabID(s string) (TabID, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return TabID{}, fmt.Errorf("%w: empty", ErrInvalidTabID)
	}
	parts := strings.Split(fields[0], ".")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return TabID{}, fmt.Errorf("%w: %q (expected <client>.<window>.<tab>)", ErrInvalidTabID, fields[0])
	}
	client, err := ParseClientID(parts[0])
	if err != nil {
		return TabID{}, fmt.Errorf("%w: %q: %v", ErrInvalidTabID, fields[0], err)
	}
	return TabID{Client: client, Window: parts[1], Tab: parts[2]}, nil
}

// FetchError reports that retrieving the tab list from one mediator
// failed. It identifies the failing client by letter and port so the
// user can tell which browser is misbehaving.
type FetchError struct {
	Client ClientID
	Port   Port
	Err    error
}

// Error satisfies the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("client %s (localhost:%d): %v", e.Client, e.Port, e.Err)
}

// Unwrap returns the underlying transport or status error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ExitCode defines the process exit codes of the bt CLI. Scripts can use
// them to tell a missing mediator from a broken one.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitUsage indicates no subcommand or malformed arguments.
	ExitUsage ExitCode = 2

	// ExitFetchFailed indicates a live mediator failed to answer a request.
	ExitFetchFailed ExitCode = 3

	// ExitEditorFailed indicates the external editor exited non-zero.
	// No tab changes are applied in that case.
	ExitEditorFailed ExitCode = 4

	// ExitNoSuchClient indicates a tab ID referred to an unknown client letter.
	ExitNoSuchClient ExitCode = 5

	// ExitTooManyClients indicates more live mediators than client letters.
	ExitTooManyClients ExitCode = 6

	// ExitInvalidConfig indicates an invalid environment or flag value.
	ExitInvalidConfig ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
