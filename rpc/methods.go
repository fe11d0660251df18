package rpc

// Methods the provider itself knows about. Everything else is forwarded to
// the wallet backend untouched.
const (
	// MethodGetProviderState returns the backend's full view of chain,
	// network, unlock and account state in one call.
	MethodGetProviderState = "wallet_getProviderState"

	// Notifications pushed by the backend to keep the provider in sync.
	MethodAccountsChanged    = "wallet_accountsChanged"
	MethodUnlockStateChanged = "wallet_unlockStateChanged"
	MethodChainChanged       = "wallet_chainChanged"

	MethodEthAccounts        = "eth_accounts"
	MethodEthRequestAccounts = "eth_requestAccounts"
	MethodEthChainID         = "eth_chainId"
	MethodEthCoinbase        = "eth_coinbase"
	MethodEthUninstallFilter = "eth_uninstallFilter"
	MethodNetVersion         = "net_version"

	MethodEthSubscription = "eth_subscription"
)

// ForwardableNotifications lists the backend notification methods that are
// relayed to the application as message events. Notifications that are
// neither listed here nor recognised as state-change signals are dropped.
var ForwardableNotifications = []string{
	MethodEthSubscription,
}

func IsForwardableNotification(method string) bool {
	for _, m := range ForwardableNotifications {
		if m == method {
			return true
		}
	}
	return false
}

// KnownMethods returns the methods this package names, for interactive
// completion and did-you-mean suggestions. The backend accepts many more.
func KnownMethods() []string {
	return []string{
		MethodGetProviderState,
		MethodEthAccounts,
		MethodEthRequestAccounts,
		MethodEthChainID,
		MethodEthCoinbase,
		MethodEthUninstallFilter,
		MethodNetVersion,
	}
}
