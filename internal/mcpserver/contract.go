package mcpserver

// ArticleFormatContract describes the Markdown article format the index
// builder accepts.
const ArticleFormatContract = `# Quire Article Format

Every article is one Markdown file (` + "`" + `.md` + "`" + ` or ` + "`" + `.mdx` + "`" + `) under the content root.

## Frontmatter

YAML between ` + "`" + `---` + "`" + ` fences, or TOML between ` + "`" + `+++` + "`" + ` fences, at the very top of the file.

` + "```" + `markdown
---
title: Paper Studio               # REQUIRED
date: 2024-01-01                  # REQUIRED, any common date or datetime form
slug: paper-studio                # OPTIONAL, derived from the file name when absent
category: Studio Visits           # OPTIONAL, slugified; defaults to "uncategorized"
tags: [craft, paper]              # OPTIONAL, list or comma-separated string; slugified
excerpt: A visit to a small studio # OPTIONAL, falls back to description, then the body
cover: /images/paper.jpg          # OPTIONAL
series: Workshops                 # OPTIONAL
issue: 12                         # OPTIONAL
readingTime: 6 min read           # OPTIONAL, estimated from the body when absent
draft: false                      # OPTIONAL, drafts are left out of the published index
---
` + "```" + `

## Rules

1. An explicit ` + "`" + `slug` + "`" + ` must already be lowercase letters, digits and single hyphens.
2. Slugs are unique across the whole corpus; a duplicate fails the build.
3. A missing title or date, or an unparseable date, fails the build.
4. Only ` + "`" + `##` + "`" + ` and ` + "`" + `###` + "`" + ` headings appear in the outline. The ` + "`" + `#` + "`" + ` heading is the title.
5. Code, images and raw HTML are not searchable.
`
