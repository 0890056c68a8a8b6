package greetd

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Request types
const (
	TypeCreateSession    = "create_session"
	TypePostAuthResponse = "post_auth_message_response"
	TypeStartSession     = "start_session"
	TypeCancelSession    = "cancel_session"
)

const (
	responseTypeSuccess     = "success"
	responseTypeError       = "error"
	responseTypeAuthMessage = "auth_message"
	authMessageVisible      = "visible"
	authMessageSecret       = "secret"
	authMessageInfo         = "info"
	authMessageError        = "error"
	errorTypeAuth           = "auth_error"
)

type createSessionRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

type startSessionRequest struct {
	Type string   `json:"type"`
	Cmd  []string `json:"cmd"`
	Env  []string `json:"env"`
}

type cancelSessionRequest struct {
	Type string `json:"type"`
}

// EncodeCreateSession builds a create_session request.
func EncodeCreateSession(username string) ([]byte, error) {
	return json.Marshal(createSessionRequest{Type: TypeCreateSession, Username: username})
}

// EncodeStartSession builds a start_session request.
func EncodeStartSession(cmd, env []string) ([]byte, error) {
	if len(cmd) == 0 {
		return nil, fmt.Errorf("start_session requires a command")
	}
	if env == nil {
		env = []string{}
	}
	return json.Marshal(startSessionRequest{Type: TypeStartSession, Cmd: cmd, Env: env})
}

// EncodeCancelSession builds a cancel_session request.
func EncodeCancelSession() ([]byte, error) {
	return json.Marshal(cancelSessionRequest{Type: TypeCancelSession})
}

// EncodeAuthResponse builds a post_auth_message_response request. A nil
// response is sent as JSON null, which is how informational prompts are
// acknowledged. The returned slice contains the credential in clear text and
// must be wiped by the caller.
func EncodeAuthResponse(response []byte) []byte {
	const prefix = `{"type":"` + TypePostAuthResponse + `","response":`
	out := make([]byte, 0, len(prefix)+len(response)*2+8)
	out = append(out, prefix...)
	if response == nil {
		out = append(out, "null"...)
	} else {
		out = appendJSONString(out, response)
	}
	return append(out, '}')
}

const hexDigits = "0123456789abcdef"

// appendJSONString quotes s without going through a string conversion.
func appendJSONString(dst, s []byte) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"' || c == '\\':
				dst = append(dst, '\\', c)
			case c == '\n':
				dst = append(dst, '\\', 'n')
			case c == '\r':
				dst = append(dst, '\\', 'r')
			case c == '\t':
				dst = append(dst, '\\', 't')
			case c < 0x20 || c == 0x7f:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			default:
				dst = append(dst, c)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRune(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, `�`...)
		} else {
			dst = append(dst, s[i:i+size]...)
		}
		i += size
	}
	return append(dst, '"')
}

// ReplyKind classifies a response from greetd.
type ReplyKind int

const (
	// ReplySuccess acknowledges the previous request.
	ReplySuccess ReplyKind = iota
	// ReplyError rejects the previous request. Reply.AuthFailure tells a
	// wrong credential apart from other failures.
	ReplyError
	// ReplyPrompt asks for a credential.
	ReplyPrompt
	// ReplyInfo carries a message that must be acknowledged with a null
	// response.
	ReplyInfo
)

func (k ReplyKind) String() string {
	switch k {
	case ReplySuccess:
		return "success"
	case ReplyError:
		return "error"
	case ReplyPrompt:
		return "prompt"
	case ReplyInfo:
		return "info"
	default:
		return fmt.Sprintf("ReplyKind(%d)", int(k))
	}
}

// Reply is a decoded greetd response.
type Reply struct {
	Kind ReplyKind
	// Text is the prompt, info text, or error description.
	Text string
	// Secret is set on prompts whose answer must be masked.
	Secret bool
	// AuthFailure is set on errors caused by a rejected credential.
	AuthFailure bool
	// Warning is set on info replies that greetd flagged as errors.
	Warning bool
}

type rawResponse struct {
	Type            string `json:"type"`
	ErrorType       string `json:"error_type"`
	Description     string `json:"description"`
	AuthMessageType string `json:"auth_message_type"`
	AuthMessage     string `json:"auth_message"`
}

// DecodeReply parses a response payload.
func DecodeReply(payload []byte) (Reply, error) {
	var raw rawResponse
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Reply{}, NewProtocolError("malformed response", err)
	}

	switch raw.Type {
	case responseTypeSuccess:
		return Reply{Kind: ReplySuccess}, nil
	case responseTypeError:
		return Reply{
			Kind:        ReplyError,
			Text:        raw.Description,
			AuthFailure: raw.ErrorType == errorTypeAuth,
		}, nil
	case responseTypeAuthMessage:
		switch raw.AuthMessageType {
		case authMessageVisible:
			return Reply{Kind: ReplyPrompt, Text: raw.AuthMessage}, nil
		case authMessageSecret:
			return Reply{Kind: ReplyPrompt, Text: raw.AuthMessage, Secret: true}, nil
		case authMessageInfo:
			return Reply{Kind: ReplyInfo, Text: raw.AuthMessage}, nil
		case authMessageError:
			return Reply{Kind: ReplyInfo, Text: raw.AuthMessage, Warning: true}, nil
		default:
			return Reply{}, NewProtocolError(fmt.Sprintf("unknown auth message type %q", raw.AuthMessageType), nil)
		}
	default:
		return Reply{}, NewProtocolError(fmt.Sprintf("unknown response type %q", raw.Type), nil)
	}
}
