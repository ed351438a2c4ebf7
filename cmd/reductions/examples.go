package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

var errInvalidExample = errors.New("invalid example")

// parseExample reads one example line:
//
//	[label] [tag]|namespace feature[:value] ... |namespace ...
//
// A feature without a value has the value 1.
func parseExample(line string) (*model.Example, error) {
	header, body, found := strings.Cut(line, "|")
	if !found {
		return nil, errors.Wrap(errInvalidExample, "no feature section")
	}

	ex := &model.Example{}

	fields := strings.Fields(header)
	if len(fields) > 2 {
		return nil, errors.Wrapf(errInvalidExample, "unexpected header %q", header)
	}

	if len(fields) > 0 {
		label, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errors.Wrapf(errInvalidExample, "invalid label %q", fields[0])
		}

		ex.Label, ex.HasLabel = label, true
	}

	if len(fields) == 2 {
		ex.Tag = strings.TrimPrefix(fields[1], "'")
	}

	for _, section := range strings.Split(body, "|") {
		namespace := ""
		if section != "" && section[0] != ' ' && section[0] != '\t' {
			namespace, section, _ = strings.Cut(section, " ")
		}

		for _, token := range strings.Fields(section) {
			name, raw, hasValue := strings.Cut(token, ":")
			value := 1.0

			if hasValue {
				var err error

				value, err = strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, errors.Wrapf(errInvalidExample, "invalid value of feature %q", name)
				}
			}

			ex.Features = append(ex.Features, model.Feature{Namespace: namespace, Name: name, Value: value})
		}
	}

	return ex, nil
}

// readExamples sends every non-empty line of r to out as an example, then closes out.
func readExamples(ctx context.Context, r io.Reader, out chan<- *model.Example) error {
	defer close(out)

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		ex, err := parseExample(line)
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNo)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- ex:
		}
	}

	return errors.Wrap(scanner.Err(), "unable to read examples")
}

// formatResult renders what the last stage produced for ex.
func formatResult(contract model.Contract, ex *model.Example) string {
	var result string

	switch contract {
	case model.MulticlassContract, model.CostSensitiveContract:
		result = strconv.Itoa(ex.Class)
	case model.BanditContract:
		result = strconv.Itoa(ex.Action)
	case model.StructuredContract:
		parts := make([]string, len(ex.Sequence))
		for i, action := range ex.Sequence {
			parts[i] = strconv.Itoa(action)
		}

		result = strings.Join(parts, " ")
	default:
		result = strconv.FormatFloat(ex.Prediction, 'g', 6, 64)
	}

	if ex.Tag != "" {
		return fmt.Sprintf("%s %s", result, ex.Tag)
	}

	return result
}
