package rules

// keyType binds a .sops.yaml rule field to the sops command-line flag that
// carries it. Supporting another key category is one more row here.
type keyType struct {
	name  string
	flag  string
	value func(CreationRule) string
}

var keyTypes = []keyType{
	{"age", "--age", func(r CreationRule) string { return r.Age }},
	{"pgp", "--pgp", func(r CreationRule) string { return r.PGP }},
	{"kms", "--kms", func(r CreationRule) string { return r.KMS }},
	{"gcp_kms", "--gcp-kms", func(r CreationRule) string { return r.GCPKMS }},
	{"azure_keyvault", "--azure-kv", func(r CreationRule) string { return r.AzureKeyVault }},
	{"hc_vault_transit_uri", "--hc-vault-transit", func(r CreationRule) string { return r.HCPVaultTransit }},
}

// ToolArgs translates the rule's key-type fields into sops flags for an
// initial encryption. Residual keys in Rest have no flag mapping and are
// not translated.
func (r CreationRule) ToolArgs() []string {
	var args []string
	for _, kt := range keyTypes {
		if value := kt.value(r); value != "" {
			args = append(args, kt.flag, value)
		}
	}
	return args
}
