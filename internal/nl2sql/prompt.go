package nl2sql

import (
	"fmt"
	"strings"
)

func systemInstruction(dialect, preamble, extra string) string {
	instruction := fmt.Sprintf(
		"You are an expert SQL generator for %[1]s. Given a natural-language request and the %[1]s schema, "+
			"output a single best SQL statement. Do not include explanations or markdown. Do not wrap in backticks. "+
			"Prefer safe SELECTs unless the user explicitly requests data modification.",
		dialect,
	)
	if extra = strings.TrimSpace(extra); extra != "" {
		instruction += "\n" + extra
	}
	if preamble = strings.TrimSpace(preamble); preamble != "" {
		return preamble + "\n\n" + instruction
	}
	return instruction
}

func initialPrompt(dialect, schema, request string) string {
	return fmt.Sprintf(
		"%s schema summary:\n%s\n\nUser request: %s\n\nReturn only the SQL query with no commentary.",
		dialect, schema, request,
	)
}

// retryPrompt carries the engine diagnostic verbatim.
func retryPrompt(dialect, schema, request, diagnostic string) string {
	return fmt.Sprintf(
		"%[1]s schema summary:\n%[2]s\n\nUser request: %[3]s\n\nThe previous SQL caused a %[1]s error: %[4]s.\nRegenerate a valid SQL that matches the schema. Return only the SQL.",
		dialect, schema, request, diagnostic,
	)
}
