package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ssaopt/internal/ir"
)

func readProgram(cmd *cobra.Command) (*ir.Program, []byte, error) {
	path, err := cmd.Flags().GetString("input")
	if err != nil {
		return nil, nil, err
	}
	data, err := readAll(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading input: %w", err)
	}
	prog, err := ir.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding input: %w", err)
	}
	return prog, data, nil
}

func readAll(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeProgram(cmd *cobra.Command, prog *ir.Program, pretty bool) error {
	encoded, err := ir.Encode(prog)
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	if pretty {
		encoded, err = prettyJSON(encoded)
		if err != nil {
			return err
		}
	}
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	return writeAll(path, encoded)
}

func prettyJSON(data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}

func writeAll(path string, data []byte) error {
	data = append(data, '\n')
	if path == "-" || path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
