package mcpserver

// RuleFormatContract describes the canonical markdown rule document format
// that LLM consumers should follow when drafting rule proposals.
const RuleFormatContract = `# Rule Document Format Contract

Every rule stored in the archive MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable rule title    # REQUIRED – 5 to 100 characters
slug: kebab-case-identifier         # REQUIRED – unique across the archive
version: 1.0.0                      # REQUIRED – semantic version
created: 2024-01-15                 # REQUIRED – YYYY-MM-DD
updated: 2024-03-01                 # OPTIONAL – YYYY-MM-DD of last revision
author: contributor name            # OPTIONAL
email: contributor@example.com      # OPTIONAL
tags:                               # REQUIRED – at least one
  - go
  - errors
category:                           # REQUIRED – at least one
  - Backend
difficulty: intermediate            # REQUIRED – beginner | intermediate | advanced
featured: false                     # OPTIONAL – surfaces the rule on the front page
---

## 개요

What the rule is and why it matters. The body (everything after the
frontmatter) must be at least 50 characters.

## 예시

At least one concrete code example showing the rule applied.
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "`" + `---` + "`" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **Slug** is lowercase kebab-case and never changes once published; it is
   the rule's stable identity in URLs, favorites and history.
3. **Both sections are required:** a level-2 heading ` + "`" + `## 개요` + "`" + ` (overview)
   and a level-2 heading ` + "`" + `## 예시` + "`" + ` (examples), in that order.
4. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `error-handling` + "`" + `).
5. **Difficulty** is exactly one of ` + "`" + `beginner` + "`" + `, ` + "`" + `intermediate` + "`" + `, ` + "`" + `advanced` + "`" + `.
6. **Encoding** is UTF-8 with a trailing newline. Section headings are
   Korean by convention; body text may be any language.
7. **No HTML** unless absolutely necessary; prefer Markdown equivalents.

## Example

` + "```" + `markdown
---
title: Wrap errors with context
slug: wrap-errors-with-context
version: 1.0.0
created: 2024-01-15
author: kim
tags:
  - go
  - errors
category:
  - Backend
difficulty: beginner
---

## 개요

Bare error returns lose the call-site context. Wrap every propagated error
with a short operation description so failures are traceable.

## 예시

    if err := loadConfig(path); err != nil {
        return fmt.Errorf("load config %s: %w", path, err)
    }
` + "```" + `
`
