package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const querySystemPrompt = `You are an assistant specialized in analyzing and explaining code repositories.
You will be given context from a repository (file contents and structure) followed by a user's question.
Answer based only on the provided context.
- If the context contains the answer, explain it clearly, referencing specific files where helpful.
- If the context is relevant but insufficient, say what you found and why it does not settle the question.
- If the context contains nothing relevant, say so plainly. Do not invent information.
Use Markdown for code snippets and file paths.`

const summarySystemPrompt = `You are an assistant that summarizes code repositories and files concisely and accurately, based only on the material provided.`

const (
	summaryStructureSample = 50
	summaryReadmeBytes     = 3000
	fileSummaryBytes       = 15000
	manifestContextBytes   = 1500
)

// repoSummaryPrompt asks for the repository overview the info endpoint and
// the query context both reuse.
func repoSummaryPrompt(slug string, paths []string, outline []string, readmeExcerpt string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the following information about the repository %s and provide a concise summary (under 250 words).\n", slug)

	sb.WriteString("\nRepository structure (sample of files):\n")
	if len(paths) > summaryStructureSample {
		paths = paths[:summaryStructureSample]
	}
	for _, p := range paths {
		sb.WriteString("- ")
		sb.WriteString(p)
		sb.WriteString("\n")
	}

	if len(outline) > 0 {
		sb.WriteString("\nREADME outline:\n")
		for _, h := range outline {
			sb.WriteString(h)
			sb.WriteString("\n")
		}
	}

	if readmeExcerpt != "" {
		sb.WriteString("\nREADME content (partial):\n")
		sb.WriteString(readmeExcerpt)
		sb.WriteString("\n")
	}

	sb.WriteString(`
Summarize:
1. The main purpose of the repository.
2. The primary languages or technologies used, if apparent.
3. Key directories or files.
4. Likely use cases or target audience.`)
	return sb.String()
}

// fileSummaryPrompt asks for a structured summary of one file.
func fileSummaryPrompt(path, content string, truncated bool) string {
	var sb strings.Builder
	sb.WriteString("Provide a detailed summary of the following file from a repository.\n\n")
	fmt.Fprintf(&sb, "File path: %s\n", path)
	if truncated {
		sb.WriteString("File content (truncated):\n")
	} else {
		sb.WriteString("File content:\n")
	}
	sb.WriteString("```\n")
	sb.WriteString(content)
	sb.WriteString("\n```\n")
	if truncated {
		sb.WriteString("... (content truncated)\n")
	}
	sb.WriteString(`
Focus on:
1. The main purpose or role of this file within the project.
2. Key functions, types, components, or configuration it defines.
3. How it likely interacts with the rest of the codebase.
4. Notable patterns, algorithms, or libraries used.`)
	return sb.String()
}

// depsPrompt asks for a tech-stack explanation of the parsed dependency
// mapping, with partial manifest contents as supporting context.
func depsPrompt(depsJSON string, manifests map[string]string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following dependency information extracted from a repository.\n\n")
	sb.WriteString("Detected dependencies:\n")
	sb.WriteString(depsJSON)
	sb.WriteString("\n")

	if len(manifests) > 0 {
		sb.WriteString("\nRelevant manifest contents (partial):\n")
		for _, name := range sortedKeys(manifests) {
			content := manifests[name]
			if len(content) > manifestContextBytes {
				content = content[:manifestContextBytes]
			}
			fmt.Fprintf(&sb, "--- %s ---\n%s\n\n", name, content)
		}
	}

	sb.WriteString(`Based on this:
1. Identify the primary languages and ecosystems used.
2. Briefly explain the purpose of the most significant dependencies.
3. Mention notable development-only dependencies, if present.
4. If multiple ecosystems appear, note what that suggests about the project's shape.
Provide a concise overview of the tech stack; do not just list the dependencies back.`)
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// canonicalJSON renders v deterministically (Go's encoder sorts map keys).
func canonicalJSON(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}
