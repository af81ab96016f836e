package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	awsiam "tasnim.dev/iamsync/internal/aws/iam"
)

// readDocument loads a policy document from path, or from stdin when path is
// "-". JSON files are passed through verbatim; anything else is parsed as
// YAML and re-encoded as JSON when sent.
func readDocument(path string, stdin io.Reader) (any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return data, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing document %s: %w", path, err)
	}
	doc, err := nodeValue(&root)
	if err != nil {
		return nil, fmt.Errorf("parsing document %s: %w", path, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s is empty", path)
	}
	return doc, nil
}

// nodeValue converts a parsed YAML tree to plain maps, slices and scalars.
// Only int, float, bool and null scalars are typed; everything else keeps its
// literal text, so an unquoted "Version: 2012-10-17" stays a string instead
// of becoming a timestamp.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[n.Content[i].Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int", "!!float", "!!bool", "!!null":
			var v any
			if err := n.Decode(&v); err != nil {
				return nil, err
			}
			return v, nil
		}
		return n.Value, nil
	}
	return nil, nil
}

// trustPolicy resolves the --trust / --trust-policy pair. Both empty means
// the reconciler's default (the compute trust policy).
func trustPolicy(preset, path string, stdin io.Reader) (any, error) {
	switch {
	case preset != "" && path != "":
		return nil, fmt.Errorf("--trust and --trust-policy are mutually exclusive")
	case path != "":
		return readDocument(path, stdin)
	}

	switch strings.ToLower(preset) {
	case "":
		return nil, nil
	case "lambda":
		return awsiam.LambdaAssumeRolePolicy, nil
	case "states":
		return awsiam.StatesAssumeRolePolicy, nil
	}
	return nil, fmt.Errorf("unknown trust preset %q (want lambda or states)", preset)
}
