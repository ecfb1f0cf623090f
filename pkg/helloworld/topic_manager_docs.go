package helloworld

// TopicManagerDocumentation describes how the topic manager validates HelloWorld outputs.
const TopicManagerDocumentation = `# HelloWorld Topic Manager

**Topic**: ` + "`tm_helloworld`" + `
**Manager Name**: ` + "`TopicManager`" + `

---

## Overview

The HelloWorld Topic Manager admits transaction outputs that carry a short text message in a
[PushDrop](https://www.npmjs.com/package/@bsv/sdk#pushdrop) locking script. Each admitted output
becomes a HelloWorld token that the ` + "`ls_helloworld`" + ` lookup service can find by message.

---

## Requirements for a Valid HelloWorld Output

1. **PushDrop Layout**: the script locks to a public key with OP_CHECKSIG, followed by the
   pushed fields and the DROP operations that remove them.
2. **Fields**: at least two fields must be present:
   1. ` + "`message`" + `: the message as UTF-8 bytes. An empty message is pushed as OP_0.
   2. ` + "`signature`" + `: the last field, a DER signature over the preceding fields.
3. **Signature Linkage**: the signature must verify against the locking public key. Tokens are
   created by their owner for themselves under protocol ` + "`helloworld`" + ` and key ` + "`1`" + `, so the
   signing key and the locking key are the same derived key.

Outputs failing any check are skipped; the rest of the transaction is still processed.

---

## Gotchas and Tips

- **Previous Coins**: HelloWorld tokens do not depend on spent inputs, so no coins are retained.
- **Funding**: fund each token output with at least one satoshi so it stays spendable.
`
