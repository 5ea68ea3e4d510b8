// Package xmltv provides streaming XMLTV parsing for electronic program
// guide data.
package xmltv

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"encoding/xml"
	"io"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Channel represents a channel definition in an XMLTV file.
type Channel struct {
	ID          string
	DisplayName string
	Icon        string
	Lang        string
}

// Programme represents a single program entry in an XMLTV file.
type Programme struct {
	Channel     string
	Start       time.Time
	Stop        time.Time
	Title       string
	SubTitle    string
	Description string
	Category    string
	Icon        string
	Language    string
	IsLive      bool
}

// Parser provides streaming XMLTV parsing with callback-based processing.
// Elements missing their required parts (channel id plus display-name;
// programme channel, start and title) are dropped without error.
type Parser struct {
	// OnChannel is called for each channel definition.
	OnChannel func(channel *Channel) error

	// OnProgramme is called for each parsed programme.
	OnProgramme func(programme *Programme) error

	// OnError is called for recoverable parsing errors.
	OnError func(err error)

	// DefaultLang is assigned to channels without a lang attribute.
	DefaultLang string

	// Now supplies the fallback instant for unparseable dates.
	// Defaults to time.Now.
	Now func() time.Time
}

// canonicalTimeLayout is the standard XMLTV timestamp format.
const canonicalTimeLayout = "20060102150405 -0700"

// compactTimeLayout is the timestamp without an offset, read as local time.
const compactTimeLayout = "20060102150405"

// normalizeTime parses an XMLTV timestamp, working through progressively
// sloppier encodings seen in real feeds:
//
//  1. canonical "YYYYMMDDhhmmss +hhmm"
//  2. the same with the space before the offset missing
//  3. leading digits only, offset discarded, read as local time
//
// On total failure it returns the current processing time; a bad date must
// never abort the whole parse.
func (p *Parser) normalizeTime(value string) time.Time {
	s := strings.TrimSpace(value)
	if s == "" {
		return p.now()
	}

	if t, err := time.Parse(canonicalTimeLayout, s); err == nil {
		return t
	}

	if len(s) > len(compactTimeLayout) {
		if c := s[len(compactTimeLayout)]; c == '+' || c == '-' {
			spaced := s[:len(compactTimeLayout)] + " " + s[len(compactTimeLayout):]
			if t, err := time.Parse(canonicalTimeLayout, spaced); err == nil {
				return t
			}
		}
	}

	digits := s
	for i, r := range s {
		if r < '0' || r > '9' {
			digits = s[:i]
			break
		}
	}
	if len(digits) >= len(compactTimeLayout) {
		if t, err := time.ParseInLocation(compactTimeLayout, digits[:len(compactTimeLayout)], time.Local); err == nil {
			return t
		}
	}

	return p.now()
}

func (p *Parser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Parse parses an XMLTV document from a reader. The token loop consumes
// one element subtree at a time so memory stays bounded on large feeds.
func (p *Parser) Parse(r io.Reader) error {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charsetReader

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		elem, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch elem.Name.Local {
		case "channel":
			if p.OnChannel == nil {
				_ = decoder.Skip()
				continue
			}
			channel, err := p.parseChannel(decoder, elem)
			if err != nil {
				p.handleError(err)
				continue
			}
			if channel.ID == "" || channel.DisplayName == "" {
				continue
			}
			if channel.Lang == "" {
				channel.Lang = p.DefaultLang
			}
			if err := p.OnChannel(channel); err != nil {
				return err
			}

		case "programme":
			if p.OnProgramme == nil {
				_ = decoder.Skip()
				continue
			}
			programme, ok, err := p.parseProgramme(decoder, elem)
			if err != nil {
				p.handleError(err)
				continue
			}
			if !ok {
				continue
			}
			if err := p.OnProgramme(programme); err != nil {
				return err
			}
		}
	}

	return nil
}

// ParseCompressed parses a potentially compressed XMLTV document,
// detecting gzip, bzip2, and xz by their magic bytes.
func (p *Parser) ParseCompressed(r io.Reader) error {
	br := bufio.NewReader(r)

	header, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return err
	}

	var reader io.Reader = br
	switch {
	case len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return err
		}
		defer gzr.Close()
		reader = gzr

	case len(header) >= 3 && header[0] == 'B' && header[1] == 'Z' && header[2] == 'h':
		reader = bzip2.NewReader(br)

	case len(header) >= 6 && header[0] == 0xfd && header[1] == '7' && header[2] == 'z' && header[3] == 'X' && header[4] == 'Z' && header[5] == 0x00:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return err
		}
		reader = xzr
	}

	return p.Parse(reader)
}

// parseChannel parses a channel element subtree.
func (p *Parser) parseChannel(decoder *xml.Decoder, start xml.StartElement) (*Channel, error) {
	channel := &Channel{}

	for _, attr := range start.Attr {
		if attr.Name.Local == "id" {
			channel.ID = attr.Value
		}
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		switch elem := token.(type) {
		case xml.StartElement:
			switch elem.Name.Local {
			case "display-name":
				for _, attr := range elem.Attr {
					if attr.Name.Local == "lang" && channel.Lang == "" {
						channel.Lang = attr.Value
					}
				}
				var name string
				if err := decoder.DecodeElement(&name, &elem); err == nil && channel.DisplayName == "" {
					channel.DisplayName = strings.TrimSpace(name)
				}
			case "icon":
				for _, attr := range elem.Attr {
					if attr.Name.Local == "src" {
						channel.Icon = attr.Value
					}
				}
				_ = decoder.Skip()
			default:
				_ = decoder.Skip()
			}
		case xml.EndElement:
			if elem.Name.Local == "channel" {
				return channel, nil
			}
		}
	}
}

// parseProgramme parses a programme element subtree. The second return
// value reports whether the element carried the required channel, start,
// and title parts.
func (p *Parser) parseProgramme(decoder *xml.Decoder, start xml.StartElement) (*Programme, bool, error) {
	prog := &Programme{}
	var hasStart, hasStop bool

	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "channel":
			prog.Channel = attr.Value
		case "start":
			if strings.TrimSpace(attr.Value) != "" {
				prog.Start = p.normalizeTime(attr.Value)
				hasStart = true
			}
		case "stop":
			if strings.TrimSpace(attr.Value) != "" {
				prog.Stop = p.normalizeTime(attr.Value)
				hasStop = true
			}
		}
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, false, err
		}

		switch elem := token.(type) {
		case xml.StartElement:
			switch elem.Name.Local {
			case "title":
				var title string
				if err := decoder.DecodeElement(&title, &elem); err == nil && prog.Title == "" {
					prog.Title = strings.TrimSpace(title)
				}
			case "sub-title":
				var subtitle string
				if err := decoder.DecodeElement(&subtitle, &elem); err == nil {
					prog.SubTitle = strings.TrimSpace(subtitle)
				}
			case "desc":
				var desc string
				if err := decoder.DecodeElement(&desc, &elem); err == nil {
					prog.Description = strings.TrimSpace(desc)
				}
			case "category":
				var cat string
				if err := decoder.DecodeElement(&cat, &elem); err == nil && prog.Category == "" {
					prog.Category = strings.TrimSpace(cat)
				}
			case "icon":
				for _, attr := range elem.Attr {
					if attr.Name.Local == "src" {
						prog.Icon = attr.Value
					}
				}
				_ = decoder.Skip()
			case "language":
				var lang string
				if err := decoder.DecodeElement(&lang, &elem); err == nil {
					prog.Language = strings.TrimSpace(lang)
				}
			case "live":
				prog.IsLive = true
				_ = decoder.Skip()
			default:
				_ = decoder.Skip()
			}
		case xml.EndElement:
			if elem.Name.Local == "programme" {
				if prog.Channel == "" || !hasStart || prog.Title == "" {
					return nil, false, nil
				}
				// A feed that omits the stop time produces a
				// zero-duration placeholder entry.
				if !hasStop {
					prog.Stop = prog.Start
				}
				return prog, true, nil
			}
		}
	}
}

// handleError calls the OnError callback if set.
func (p *Parser) handleError(err error) {
	if p.OnError != nil {
		p.OnError(err)
	}
}

// charsetReader handles the non-UTF-8 encodings that appear in the wild.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return input, nil
	case "iso-8859-1", "latin1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1251", "cp1251":
		return transform.NewReader(input, charmap.Windows1251.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	default:
		// Unknown charsets are passed through rather than aborting.
		return input, nil
	}
}

// ParseAll parses an entire document and returns all channels and
// programmes. This buffers everything in memory; use Parse with callbacks
// for large feeds.
func ParseAll(r io.Reader, defaultLang string) ([]*Channel, []*Programme, error) {
	var channels []*Channel
	var programmes []*Programme
	p := &Parser{
		DefaultLang: defaultLang,
		OnChannel: func(c *Channel) error {
			channels = append(channels, c)
			return nil
		},
		OnProgramme: func(prog *Programme) error {
			programmes = append(programmes, prog)
			return nil
		},
	}
	if err := p.ParseCompressed(r); err != nil {
		return nil, nil, err
	}
	return channels, programmes, nil
}
