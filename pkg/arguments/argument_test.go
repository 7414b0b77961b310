package arguments

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
)

func TestString_Validate(t *testing.T) {
	tests := []struct {
		name      string
		arg       *StringArgument
		input     string
		wantValue string
		wantRest  string
		wantErr   string
	}{
		{
			name:      "plain token",
			arg:       String("word"),
			input:     "hello world",
			wantValue: "hello",
			wantRest:  "world",
		},
		{
			name:      "single token leaves empty remainder",
			arg:       String("word"),
			input:     "hello",
			wantValue: "hello",
			wantRest:  "",
		},
		{
			name:      "whitespace run between tokens is trimmed",
			arg:       String("word"),
			input:     "hello   trailing text",
			wantValue: "hello",
			wantRest:  "trailing text",
		},
		{
			name:    "empty input",
			arg:     String("word"),
			input:   "",
			wantErr: "expected a value",
		},
		{
			name:    "min length",
			arg:     String("word").MinLength(6),
			input:   "hello",
			wantErr: "must be at least 6 characters long",
		},
		{
			name:    "max length",
			arg:     String("word").MaxLength(3),
			input:   "hello",
			wantErr: "must be at most 3 characters long",
		},
		{
			name:      "whitelist accepts",
			arg:       String("action").Whitelist("chat", "poke"),
			input:     "poke",
			wantValue: "poke",
		},
		{
			name:    "whitelist rejects",
			arg:     String("action").Whitelist("chat", "poke"),
			input:   "yell",
			wantErr: "must be one of: chat, poke",
		},
		{
			name:      "lowercase folding happens before whitelist",
			arg:       String("action").Lowercase().Whitelist("chat"),
			input:     "CHAT",
			wantValue: "chat",
		},
		{
			name:    "min length wins over whitelist",
			arg:     String("action").MinLength(5).Whitelist("chat"),
			input:   "yo",
			wantErr: "must be at least 5 characters long",
		},
		{
			name:    "pattern rejects",
			arg:     String("code").Match(regexp.MustCompile(`^[0-9]+$`)),
			input:   "abc",
			wantErr: "does not match the expected format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, rest, err := tt.arg.Validate(tt.input)
			if tt.wantErr != "" {
				assertParseError(t, err, tt.wantErr)
				return
			}
			if err != nil {
				t.Fatalf("Validate(%q) failed: %v", tt.input, err)
			}
			if value != tt.wantValue {
				t.Errorf("value = %v, want %v", value, tt.wantValue)
			}
			if rest != tt.wantRest {
				t.Errorf("rest = %q, want %q", rest, tt.wantRest)
			}
		})
	}
}

func TestNumber_Validate(t *testing.T) {
	tests := []struct {
		name      string
		arg       *NumberArgument
		input     string
		wantValue float64
		wantRest  string
		wantErr   string
	}{
		{
			name:      "integer token",
			arg:       Number("amount"),
			input:     "5 rest",
			wantValue: 5,
			wantRest:  "rest",
		},
		{
			name:      "float token",
			arg:       Number("amount"),
			input:     "2.5",
			wantValue: 2.5,
		},
		{
			name:    "not a number",
			arg:     Number("amount"),
			input:   "five",
			wantErr: `"five" is not a number`,
		},
		{
			name:    "empty input",
			arg:     Number("amount"),
			input:   "",
			wantErr: "expected a number",
		},
		{
			name:    "integer constraint",
			arg:     Number("amount").Integer(),
			input:   "2.5",
			wantErr: "must be an integer",
		},
		{
			name:    "min",
			arg:     Number("amount").Min(1),
			input:   "0",
			wantErr: "must be at least 1",
		},
		{
			name:    "max",
			arg:     Number("amount").Max(10),
			input:   "11",
			wantErr: "must be at most 10",
		},
		{
			name:    "positive",
			arg:     Number("amount").Positive(),
			input:   "-3",
			wantErr: "must be positive",
		},
		{
			name:    "negative",
			arg:     Number("amount").Negative(),
			input:   "3",
			wantErr: "must be negative",
		},
		{
			name:      "integer check runs before min",
			arg:       Number("amount").Min(5).Integer(),
			input:     "2.5",
			wantValue: 0,
			wantErr:   "must be an integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, rest, err := tt.arg.Validate(tt.input)
			if tt.wantErr != "" {
				assertParseError(t, err, tt.wantErr)
				return
			}
			if err != nil {
				t.Fatalf("Validate(%q) failed: %v", tt.input, err)
			}
			if value != tt.wantValue {
				t.Errorf("value = %v, want %v", value, tt.wantValue)
			}
			if rest != tt.wantRest {
				t.Errorf("rest = %q, want %q", rest, tt.wantRest)
			}
		})
	}
}

func TestIdentity_Validate(t *testing.T) {
	resolver := func(token string) (string, error) {
		if token == "@alice" {
			return "alice", nil
		}
		return "", fmt.Errorf("unknown identity %q", token)
	}

	t.Run("resolves token", func(t *testing.T) {
		value, rest, err := Identity("target", resolver).Validate("@alice now")
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if value != "alice" {
			t.Errorf("value = %v, want alice", value)
		}
		if rest != "now" {
			t.Errorf("rest = %q, want %q", rest, "now")
		}
	})

	t.Run("resolver rejection becomes ParseError", func(t *testing.T) {
		_, _, err := Identity("target", resolver).Validate("@bob")
		assertParseError(t, err, `"@bob" is not a valid identity reference`)
	})

	t.Run("missing resolver", func(t *testing.T) {
		_, _, err := Identity("target", nil).Validate("@alice")
		assertParseError(t, err, "no identity resolver configured")
	})
}

func TestRest_Validate(t *testing.T) {
	t.Run("consumes everything", func(t *testing.T) {
		value, rest, err := Rest("message").Validate("hello there world")
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if value != "hello there world" {
			t.Errorf("value = %v", value)
		}
		if rest != "" {
			t.Errorf("rest = %q, want empty", rest)
		}
	})

	t.Run("min length applies to the whole text", func(t *testing.T) {
		_, _, err := Rest("message").MinLength(3).Validate("hi")
		assertParseError(t, err, "must be at least 3 characters long")
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, err := Rest("message").Validate("")
		assertParseError(t, err, "expected a value")
	})
}

func TestGroup_Or(t *testing.T) {
	group := Or("choice",
		Number("amount").Min(1),
		String("keyword").Whitelist("all"),
	)

	t.Run("first matching child wins", func(t *testing.T) {
		value, rest, err := group.Validate("5 tail")
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		m := value.(map[string]any)
		if m["amount"] != float64(5) {
			t.Errorf("amount = %v, want 5", m["amount"])
		}
		if _, ok := m["keyword"]; ok {
			t.Error("keyword should not be set when the first child matched")
		}
		if rest != "tail" {
			t.Errorf("rest = %q, want %q", rest, "tail")
		}
	})

	t.Run("falls through to a later child", func(t *testing.T) {
		value, _, err := group.Validate("all")
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		m := value.(map[string]any)
		if m["keyword"] != "all" {
			t.Errorf("keyword = %v, want all", m["keyword"])
		}
	})

	t.Run("declaration order decides ambiguous input", func(t *testing.T) {
		ambiguous := Or("choice",
			String("word"),
			Number("amount"),
		)
		value, _, err := ambiguous.Validate("5")
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		m := value.(map[string]any)
		if m["word"] != "5" {
			t.Errorf("first declared child should win, got %v", m)
		}
	})

	t.Run("no child matches", func(t *testing.T) {
		_, _, err := group.Validate("nope")
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("want *ParseError, got %T", err)
		}
		if perr.Message != "no alternative matched" {
			t.Errorf("message = %q", perr.Message)
		}
		if len(perr.Causes) != 2 {
			t.Errorf("want 2 collected causes, got %d", len(perr.Causes))
		}
	})
}

func TestGroup_And(t *testing.T) {
	group := And("pair",
		String("action").Whitelist("set"),
		Number("value").Min(0),
	)

	t.Run("all children validate in order", func(t *testing.T) {
		value, rest, err := group.Validate("set 3 extra")
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		m := value.(map[string]any)
		if m["action"] != "set" || m["value"] != float64(3) {
			t.Errorf("resolved = %v", m)
		}
		if rest != "extra" {
			t.Errorf("rest = %q, want %q", rest, "extra")
		}
	})

	t.Run("fails with the first child's error", func(t *testing.T) {
		_, _, err := group.Validate("unset 3")
		assertParseError(t, err, "must be one of: set")
	})

	t.Run("second child failure propagates", func(t *testing.T) {
		_, _, err := group.Validate("set nope")
		assertParseError(t, err, `"nope" is not a number`)
	})

	t.Run("nested groups flatten", func(t *testing.T) {
		nested := And("outer",
			String("verb").Whitelist("move"),
			And("inner",
				Number("x"),
				Number("y"),
			),
		)
		value, _, err := nested.Validate("move 1 2")
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		m := value.(map[string]any)
		if m["verb"] != "move" || m["x"] != float64(1) || m["y"] != float64(2) {
			t.Errorf("resolved = %v", m)
		}
		if _, ok := m["inner"]; ok {
			t.Error("group's own name must not appear in the result")
		}
	})
}

func TestNewBase_RejectsInvalidNames(t *testing.T) {
	for _, name := range []string{"", "with space", "dash-ed", "percent%"} {
		t.Run(fmt.Sprintf("name %q", name), func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("String(%q) should panic", name)
				}
			}()
			String(name)
		})
	}
}

func assertParseError(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("want error %q, got nil", want)
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("want *ParseError, got %T: %v", err, err)
	}
	if perr.Message != want {
		t.Errorf("message = %q, want %q", perr.Message, want)
	}
}
