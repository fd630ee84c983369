package mcpserver

// QueryGrammar describes how a quick-note query line is interpreted.
const QueryGrammar = `# Quick Note Query Grammar

` + "```" + `
<title> <content> [!notebook]
"quoted title" <content> [!"notebook name"]
` + "```" + `

## Rules

1. **Notebook directive.** A trailing ` + "`" + `!name` + "`" + ` or ` + "`" + `!"name with spaces"` + "`" + `,
   preceded by whitespace, selects the notebook. It is removed before the rest is parsed.
   ` + "`" + `!""` + "`" + ` and a blank quoted name are kept as text. A bare name may start
   with a quote, so ` + "`" + `!"Work` + "`" + ` selects the notebook ` + "`" + `"Work` + "`" + `.
   Any Unicode space separates the directive, including no-break spaces.
2. **Quoted title.** If the text starts with ` + "`" + `"` + "`" + `, the title runs to the next
   quote and the content is whatever follows it. A missing closing quote makes the
   query invalid.
3. **Bare title.** Otherwise the first word is the title and the rest is the content.
4. **Matching.** Titles and notebook names match case-insensitively, ignoring
   surrounding whitespace. The first matching note (oldest first, at most 1000 notes
   scanned) receives the content on a new line; otherwise a new note is created.
5. **Notebooks.** An explicit notebook that does not exist aborts the run. The
   configured default notebook is used only for new notes without a directive, and
   a missing default falls back to the top level.

## Examples

| Query | Title | Content | Notebook |
|---|---|---|---|
| ` + "`" + `Groceries buy milk` + "`" + ` | Groceries | buy milk | |
| ` + "`" + `"Project X" ship it !Work` + "`" + ` | Project X | ship it | Work |
| ` + "`" + `Ideas !"Side Projects"` + "`" + ` | Ideas | | Side Projects |
`
