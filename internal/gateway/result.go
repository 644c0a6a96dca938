package gateway

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"
)

const (
	errorEntry        = "error.json"
	resultEntry       = "result.json"
	nestedResultEntry = "data/result.json"
)

type errorArtifact struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type resultArtifact struct {
	CreditScore     *int               `json:"creditScore"`
	Score           *int               `json:"score"`
	Grade           string             `json:"grade"`
	Status          string             `json:"status"`
	Error           string             `json:"error"`
	FactorBreakdown map[string]float64 `json:"factorBreakdown"`
	Timestamp       int64              `json:"timestamp"`
}

// DecodeBundle interprets a zipped task result. An error artifact wins over
// everything else and surfaces as a ComputationError with the embedded
// message. Otherwise the result artifact is read from the archive root or
// from the data/ directory. A bundle with neither yields a
// MalformedOutputError listing the entries present.
func DecodeBundle(data []byte) (*ScoreResult, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	entries := make(map[string]*zip.File, len(archive.File))
	names := make([]string, 0, len(archive.File))
	for _, f := range archive.File {
		entries[f.Name] = f
		names = append(names, f.Name)
	}

	if f, ok := entries[errorEntry]; ok {
		raw, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		var artifact errorArtifact
		if err := json.Unmarshal(raw, &artifact); err != nil {
			return nil, err
		}
		message := artifact.Message
		if message == "" {
			message = artifact.Error
		}
		if message == "" {
			message = "computation failed"
		}
		return nil, &ComputationError{Message: message}
	}

	f, ok := entries[resultEntry]
	if !ok {
		f, ok = entries[nestedResultEntry]
	}
	if !ok {
		sort.Strings(names)
		return nil, &MalformedOutputError{Files: names}
	}

	raw, err := readEntry(f)
	if err != nil {
		return nil, err
	}
	var artifact resultArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, err
	}
	if artifact.Error != "" {
		return nil, &ComputationError{Message: artifact.Error}
	}
	if strings.EqualFold(artifact.Status, "FAILURE") {
		return nil, &ComputationError{Message: "computation reported failure"}
	}

	result := &ScoreResult{
		Grade:     artifact.Grade,
		Timestamp: time.Now().UTC(),
	}
	switch {
	case artifact.CreditScore != nil:
		result.Score = *artifact.CreditScore
	case artifact.Score != nil:
		result.Score = *artifact.Score
	}
	if result.Grade == "" {
		result.Grade = "N/A"
	}
	if artifact.Timestamp > 0 {
		result.Timestamp = time.UnixMilli(artifact.Timestamp).UTC()
	}

	result.Factors = make([]Factor, 0, len(artifact.FactorBreakdown))
	for key, value := range artifact.FactorBreakdown {
		result.Factors = append(result.Factors, Factor{
			Name:  formatFactorName(key),
			Value: value,
		})
	}
	sort.Slice(result.Factors, func(i, j int) bool {
		return result.Factors[i].Name < result.Factors[j].Name
	})

	result.Bundle = data
	return result, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// formatFactorName renders a camelCase breakdown key as a display label,
// e.g. "paymentHistory" becomes "Payment History".
func formatFactorName(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
