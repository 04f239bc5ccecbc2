/*
Package security protects credentials at rest.

The backend store is reached over HTTP Basic auth using four
URL/user/password pairs (read, write). Those credentials live in the
configuration file; the password may be stored there as AES-256-GCM
ciphertext produced by CredentialsManager (influxDataLogger.passwordEncrypted),
in which case no plaintext password needs to be on disk. The URLs and
the user name are not encrypted, and a plaintext password field is
still accepted when no encrypted one is set.

There is no certificate authority or mTLS machinery here: the external
interfaces this module talks to (the backend store, the gRPC slot
surface) do not call for client certificates, so that surface has no
component to serve it.
*/
package security
