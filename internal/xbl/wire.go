package xbl

// Endpoints of the five remote authorities in the bind chain. All wire
// shapes below are dictated by those services; field names and casing
// must match their JSON contracts exactly.
const (
	endpointDeviceCode    = "https://login.live.com/oauth20_connect.srf"
	endpointToken         = "https://login.live.com/oauth20_token.srf"
	endpointDeviceAuth    = "https://device.auth.xboxlive.com/device/authenticate"
	endpointSisuAuthorize = "https://sisu.xboxlive.com/authorize"
	endpointLoginWithXbox = "https://api.minecraftservices.com/authentication/login_with_xbox"
	endpointProfile       = "https://api.minecraftservices.com/minecraft/profile"

	deviceAuthRelyingParty = "http://auth.xboxlive.com"
	sisuSiteName           = "user.auth.xboxlive.com"
)

// deviceCodeGrant is the response of the device-code issuance call
// (RFC 8628 shape). Consumed only by the poller.
type deviceCodeGrant struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	Interval        int    `json:"interval"`
	ExpiresIn       int    `json:"expires_in"`
}

// tokenResponse is the polling response. Error distinguishes the
// non-terminal authorization_pending condition from fatal rejections.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

const errAuthorizationPending = "authorization_pending"

type deviceAuthProperties struct {
	AuthMethod   string   `json:"AuthMethod"`
	ID           string   `json:"Id"`
	DeviceType   string   `json:"DeviceType"`
	SerialNumber string   `json:"SerialNumber"`
	Version      string   `json:"Version"`
	ProofKey     ProofKey `json:"ProofKey"`
}

type deviceAuthRequest struct {
	Properties   deviceAuthProperties `json:"Properties"`
	RelyingParty string               `json:"RelyingParty"`
	TokenType    string               `json:"TokenType"`
}

type deviceAuthResponse struct {
	Token string `json:"Token"`
}

type sisuRequest struct {
	AccessToken       string   `json:"AccessToken"`
	AppID             string   `json:"AppId"`
	DeviceToken       string   `json:"DeviceToken"`
	Sandbox           string   `json:"Sandbox"`
	UseModernGamertag bool     `json:"UseModernGamertag"`
	SiteName          string   `json:"SiteName"`
	RelyingParty      string   `json:"RelyingParty"`
	ProofKey          ProofKey `json:"ProofKey"`
}

type sisuResponse struct {
	AuthorizationToken struct {
		Token         string `json:"Token"`
		DisplayClaims struct {
			Xui []struct {
				UserHash string `json:"uhs"`
			} `json:"xui"`
		} `json:"DisplayClaims"`
	} `json:"AuthorizationToken"`
}

type loginWithXboxRequest struct {
	IdentityToken string `json:"identityToken"`
}

type loginWithXboxResponse struct {
	AccessToken string `json:"access_token"`
}

// mcProfile is the external profile returned by the final call; the only
// artifact of the chain that outlives the session.
type mcProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
