package main

import (
	_ "crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/pocketknife/pka"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// Digest algorithms accepted by --digest.
const (
	digestNone   = "none"
	digestSHA256 = "sha256"
	digestBLAKE3 = "blake3"
)

// algBLAKE3 labels BLAKE3-256 digests. go-digest does not register it, but
// NewDigestFromEncoded only formats the string.
const algBLAKE3 digest.Algorithm = "blake3"

// report describes an archive index for display.
type report struct {
	Archive  string       `json:"archive" yaml:"archive"`
	Codec    string       `json:"codec" yaml:"codec"`
	Entries  int          `json:"entries" yaml:"entries"`
	DataSize uint64       `json:"dataSize" yaml:"dataSize"`
	Items    []reportItem `json:"items" yaml:"items"`
}

type reportItem struct {
	Name   string        `json:"name" yaml:"name"`
	Offset uint64        `json:"offset" yaml:"offset"`
	Length uint64        `json:"length" yaml:"length"`
	Digest digest.Digest `json:"digest,omitempty" yaml:"digest,omitempty"`
}

func newReport(archive string, codec pka.IndexCodec, idx *pka.Index) *report {
	r := &report{
		Archive:  archive,
		Codec:    codec.String(),
		Entries:  idx.Len(),
		DataSize: idx.DataSize(),
		Items:    make([]reportItem, 0, idx.Len()),
	}
	for name, e := range idx.All() {
		r.Items = append(r.Items, reportItem{Name: name, Offset: e.Offset, Length: e.Length})
	}
	return r
}

// addDigests hashes every payload in a with algorithm alg.
func (r *report) addDigests(a *pka.Archive, alg string) error {
	if alg == digestNone {
		return nil
	}
	for i := range r.Items {
		d, err := digestEntry(a, r.Items[i].Name, alg)
		if err != nil {
			return err
		}
		r.Items[i].Digest = d
	}
	return nil
}

func digestEntry(a *pka.Archive, name, alg string) (digest.Digest, error) {
	switch alg {
	case digestSHA256:
		digester := digest.SHA256.Digester()
		if _, err := a.ExtractTo(digester.Hash(), name); err != nil {
			return "", err
		}
		return digester.Digest(), nil
	case digestBLAKE3:
		h := blake3.New()
		if _, err := a.ExtractTo(h, name); err != nil {
			return "", err
		}
		return digest.NewDigestFromEncoded(algBLAKE3, hex.EncodeToString(h.Sum(nil))), nil
	default:
		return "", fmt.Errorf("unknown digest algorithm %q", alg)
	}
}

func writeReport(w io.Writer, r *report, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeText(w, r)
	}
}

func writeText(w io.Writer, r *report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "archive:\t%s\n", r.Archive)
	fmt.Fprintf(tw, "codec:\t%s\n", r.Codec)
	fmt.Fprintf(tw, "entries:\t%d\n", r.Entries)
	fmt.Fprintf(tw, "data:\t%s\n", humanize.IBytes(r.DataSize))
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(r.Items) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tOFFSET\tLENGTH\tSIZE\tDIGEST")
	for _, item := range r.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			strconv.Quote(item.Name),
			item.Offset,
			strconv.FormatUint(item.Length, 10),
			humanize.IBytes(item.Length),
			item.Digest)
	}
	return tw.Flush()
}
