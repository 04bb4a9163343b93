package protocol

// Tag bytes from the wire contract. One leading tag byte identifies
// each command; Read and Quit are tag-only, every other body ends with
// CRLF.
const (
	TagCreate     byte = '+'
	TagRead       byte = '$'
	TagQuit       byte = '-'
	TagList       byte = '%'
	TagDisconnect byte = '!'
	TagID         byte = '#'
)

// Kind discriminates the command variant carried by a frame. The
// values are the wire tag bytes themselves.
type Kind byte

const (
	KindCreate     Kind = Kind(TagCreate)
	KindRead       Kind = Kind(TagRead)
	KindQuit       Kind = Kind(TagQuit)
	KindList       Kind = Kind(TagList)
	KindDisconnect Kind = Kind(TagDisconnect)
	KindID         Kind = Kind(TagID)
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "CREATE"
	case KindRead:
		return "READ"
	case KindQuit:
		return "QUIT"
	case KindList:
		return "LIST"
	case KindDisconnect:
		return "DISCONNECT"
	case KindID:
		return "ID"
	default:
		return "UNKNOWN"
	}
}

// Command is the decoded semantic content of one frame. Exactly one of
// the payload fields is meaningful, selected by Kind.
type Command struct {
	Kind    Kind
	Text    string   // Create
	Entries []string // List
	ID      uint64   // Id, Disconnect
}

func Create(text string) Command {
	return Command{Kind: KindCreate, Text: text}
}

func List(entries []string) Command {
	return Command{Kind: KindList, Entries: entries}
}

func ID(id uint64) Command {
	return Command{Kind: KindID, ID: id}
}

func Disconnect(id uint64) Command {
	return Command{Kind: KindDisconnect, ID: id}
}

func Read() Command {
	return Command{Kind: KindRead}
}

func Quit() Command {
	return Command{Kind: KindQuit}
}
