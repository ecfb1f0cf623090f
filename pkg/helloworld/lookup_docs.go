package helloworld

// LookupDocumentation describes the query formats accepted by the HelloWorld lookup service.
const LookupDocumentation = `# HelloWorld Lookup Service

**Lookup Service Name**: ` + "`ls_helloworld`" + `

---

## Overview

The HelloWorld Lookup Service tracks outputs admitted to ` + "`tm_helloworld`" + ` and finds them by message.
Records are removed when their output is spent or evicted.

Send a LookupQuestion with:
- ` + "`question.service = 'ls_helloworld'`" + `
- ` + "`question.query`" + ` in one of the formats below.

---

## Query Formats

1. ` + "`\"findAll\"`" + `: every tracked token.
2. Any other non-empty string: tokens whose message contains the string, ignoring case.
   The string is matched literally, so regular expression characters have no special meaning.
3. An object:

` + "```json" + `
{
  "message": "hello",
  "findAll": false,
  "limit": 10,
  "skip": 0,
  "sortOrder": "desc"
}
` + "```" + `

   - ` + "`message`" + `: optional filter, must be non-empty when present.
   - ` + "`findAll`" + `: when true, ` + "`message`" + ` is ignored.
   - ` + "`limit`" + ` / ` + "`skip`" + `: optional non-negative pagination values; zero means unset.
   - ` + "`sortOrder`" + `: ` + "`\"asc\"`" + ` or ` + "`\"desc\"`" + ` by creation time, newest first by default.

An empty object is the same as ` + "`\"findAll\"`" + `.

---

## Answer

The service answers with a formula listing matching outpoints. The overlay engine hydrates them
into an ` + "`output-list`" + ` answer carrying each output's BEEF and output index.
`
