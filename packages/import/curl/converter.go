// Package curl converts curl command lines into reqline statements.
package curl

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/abdul-hamid-achik/reqline/packages/core/jsonvalue"
	"github.com/abdul-hamid-achik/reqline/packages/core/parser"
)

// ParsedCurl represents a parsed curl command.
type ParsedCurl struct {
	Method          string
	URL             string // Without query string or fragment
	Query           []jsonvalue.Member
	Headers         []jsonvalue.Member
	Body            string
	BasicAuth       string
	Insecure        bool
	FollowRedirects bool
}

// Conversion is a converted command. Notes list curl options that have no
// statement equivalent.
type Conversion struct {
	Statement string
	Notes     []string
}

// Convert turns a single curl command into a statement. The statement is
// checked with the reqline parser before it is returned.
func Convert(curlCmd string) (*Conversion, error) {
	parsed, err := Parse(curlCmd)
	if err != nil {
		return nil, err
	}

	statement, err := parsed.Statement()
	if err != nil {
		return nil, err
	}
	if _, err := parser.Parse(statement); err != nil {
		return nil, fmt.Errorf("converted statement is invalid: %w", err)
	}

	conv := &Conversion{Statement: statement}
	if parsed.Insecure {
		conv.Notes = append(conv.Notes, "-k/--insecure: pass --insecure to reqline instead")
	}
	if parsed.FollowRedirects {
		conv.Notes = append(conv.Notes, "-L/--location: reqline follows redirects by default")
	}
	return conv, nil
}

// ConvertAll converts every command read from r. Blank lines and lines
// starting with # are skipped and a trailing backslash continues a command
// on the next line.
func ConvertAll(r io.Reader) ([]*Conversion, error) {
	var commands []string
	var currentCmd strings.Builder
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, "\\") {
			currentCmd.WriteString(strings.TrimSuffix(line, "\\"))
			currentCmd.WriteString(" ")
			continue
		}

		currentCmd.WriteString(line)
		commands = append(commands, currentCmd.String())
		currentCmd.Reset()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commands: %w", err)
	}

	if currentCmd.Len() > 0 {
		commands = append(commands, currentCmd.String())
	}

	conversions := make([]*Conversion, 0, len(commands))
	for i, cmd := range commands {
		conv, err := Convert(cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		conversions = append(conversions, conv)
	}
	return conversions, nil
}

// Parse parses a curl command string into a ParsedCurl struct.
func Parse(curlCmd string) (*ParsedCurl, error) {
	parsed := &ParsedCurl{Method: "GET"}

	curlCmd = strings.TrimSpace(curlCmd)
	if curlCmd == "curl" {
		return nil, fmt.Errorf("no URL specified")
	}
	curlCmd = strings.TrimPrefix(curlCmd, "curl ")

	tokens := tokenize(curlCmd)
	explicitMethod := false

	value := func(i int) (string, error) {
		if i+1 >= len(tokens) {
			return "", fmt.Errorf("missing value for %s", tokens[i])
		}
		return tokens[i+1], nil
	}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		switch token {
		case "-X", "--request":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Method = strings.ToUpper(v)
			explicitMethod = true
			i++

		case "-H", "--header":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			if key, val, ok := strings.Cut(v, ":"); ok {
				parsed.setHeader(strings.TrimSpace(key), strings.TrimSpace(val))
			}
			i++

		case "-d", "--data", "--data-raw", "--data-binary":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Body = v
			if !explicitMethod {
				parsed.Method = "POST"
			}
			i++

		case "-u", "--user":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.BasicAuth = v
			i++

		case "-A", "--user-agent", "-e", "--referer", "-b", "--cookie":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.setHeader(headerForFlag[token], v)
			i++

		case "-k", "--insecure":
			parsed.Insecure = true

		case "-L", "--location":
			parsed.FollowRedirects = true

		default:
			if strings.HasPrefix(token, "-") {
				// Skip unknown flags with potential values
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i++
				}
				continue
			}
			if parsed.URL == "" && isURL(token) {
				if err := parsed.setURL(token); err != nil {
					return nil, err
				}
			}
		}
	}

	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}

	if parsed.BasicAuth != "" {
		parsed.setHeader("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(parsed.BasicAuth)))
	}

	return parsed, nil
}

var headerForFlag = map[string]string{
	"-A": "User-Agent", "--user-agent": "User-Agent",
	"-e": "Referer", "--referer": "Referer",
	"-b": "Cookie", "--cookie": "Cookie",
}

// setHeader replaces a header of the same name, keeping its position.
func (p *ParsedCurl) setHeader(key, value string) {
	for i, m := range p.Headers {
		if strings.EqualFold(m.Key, key) {
			p.Headers[i].Value = jsonvalue.NewString(value)
			return
		}
	}
	p.Headers = append(p.Headers, jsonvalue.Member{Key: key, Value: jsonvalue.NewString(value)})
}

// setURL splits the query string of raw into Query, in order.
func (p *ParsedCurl) setURL(raw string) error {
	base, rawQuery, _ := strings.Cut(raw, "?")
	base, _, _ = strings.Cut(base, "#")
	rawQuery, _, _ = strings.Cut(rawQuery, "#")
	p.URL = base

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, val, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			return fmt.Errorf("invalid query key %q: %w", key, err)
		}
		v, err := url.QueryUnescape(val)
		if err != nil {
			return fmt.Errorf("invalid query value %q: %w", val, err)
		}
		p.Query = append(p.Query, jsonvalue.Member{Key: k, Value: jsonvalue.NewString(v)})
	}
	return nil
}

// Statement renders p as a reqline statement. Only GET and POST can be
// expressed and a body must be JSON.
func (p *ParsedCurl) Statement() (string, error) {
	if p.Method != "GET" && p.Method != "POST" {
		return "", fmt.Errorf("method %s cannot be expressed as a statement", p.Method)
	}

	sections := []string{"HTTP " + p.Method, "URL " + p.URL}

	if len(p.Headers) > 0 {
		s, err := jsonvalue.NewObject(p.Headers...).MarshalJSON()
		if err != nil {
			return "", err
		}
		sections = append(sections, "HEADERS "+string(s))
	}
	if len(p.Query) > 0 {
		s, err := jsonvalue.NewObject(p.Query...).MarshalJSON()
		if err != nil {
			return "", err
		}
		sections = append(sections, "QUERY "+string(s))
	}
	if p.Body != "" {
		body, err := jsonvalue.Parse(p.Body)
		if err != nil {
			return "", fmt.Errorf("body is not JSON: %w", err)
		}
		s, err := body.MarshalJSON()
		if err != nil {
			return "", err
		}
		sections = append(sections, "BODY "+string(s))
	}

	return strings.Join(sections, " | "), nil
}

// tokenize splits a curl command into tokens, respecting quotes.
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inSingleQuote {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// isURL checks if a string looks like a URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
