// Package core contains the relay's canonical contracts: configuration, the
// normalized inbound message model, transport and metrics contracts, and the
// error envelope shared by every adapter. Provider and transport packages depend
// on core; core must not depend on them.
package core
