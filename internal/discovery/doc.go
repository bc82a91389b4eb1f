// Package discovery finds claim prediction services on the local network
// with mDNS.
//
// Prediction services advertise as "_http._tcp" with a TXT record
// "path=/Predict_Sentiment". Other HTTP services on the network are
// ignored.
//
// # Usage Example
//
//	services, err := discovery.ScanForServices(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, svc := range services {
//	    fmt.Println(svc.Endpoint()) // http://192.168.1.20:5000/Predict_Sentiment
//	}
//
// The endpoint can be saved with `claimsense --endpoint` or in the
// configuration file.
//
// Advertise does the reverse for `claimsense serve`: it announces the
// websocket bridge (TXT "path=/ws") so a browser front end can locate it.
//
// mDNS only works on the local network segment and may be blocked by
// firewalls or by client isolation on some Wi-Fi networks.
package discovery
