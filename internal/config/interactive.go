package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	inputFile = os.Stdin
)

func guidedInitialization(config *Config) error {
	scanner := bufio.NewScanner(inputFile)

	input, err := ask(scanner, fmt.Sprintf("Enter Google Cloud project [default: %s]", orNone(config.Project)))
	if err != nil {
		return err
	}
	if input != "" {
		config.Project = input
	}

	input, err = ask(scanner, fmt.Sprintf("Enter function region [default: %s]", config.Region))
	if err != nil {
		return err
	}
	if input != "" {
		config.Region = input
	}

	input, err = ask(scanner, fmt.Sprintf("Enter journal database path [default: %s]", config.JournalPath))
	if err != nil {
		return err
	}
	if input != "" {
		config.JournalPath = input
	}

	input, err = ask(scanner, fmt.Sprintf("Enter metrics file path [default: %s]", orNone(config.MetricsFile)))
	if err != nil {
		return err
	}
	if input != "" {
		config.MetricsFile = input
	}

	input, err = ask(scanner, fmt.Sprintf("Enter max parallel storage calls, 0 for unlimited [default: %d]", config.Concurrency))
	if err != nil {
		return err
	}
	if input != "" {
		n, err := strconv.Atoi(input)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid concurrency '%s': expected a non-negative number", input)
		}
		config.Concurrency = n
	}

	return nil
}

func ask(scanner *bufio.Scanner, prompt string) (string, error) {
	fmt.Printf("%s: ", prompt)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("could not read user input: %w", err)
		}
		return "", nil // EOF or closed input
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func orNone(value string) string {
	if value == "" {
		return "none"
	}
	return value
}
