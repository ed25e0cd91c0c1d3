package constant

// AsciiArtLogo is the banner printed above the root command help.
const AsciiArtLogo = `
  ___          _ _______   __
 | _ \___ _  _(_)_   _\ \ / /
 |  _/ -_) || | | | |  \ V /
 |_| \___|\_, |_| |_|   \_/
          |__/`
